package data

import (
	"fmt"
	"math"
	"strconv"
)

// Numeric value types, one per fixed-width kind.
type (
	Byte   int8
	Short  int16
	Int    int32
	Long   int64
	Float  float32
	Double float64
)

func (v Byte) Truthy() bool   { return v != 0 }
func (v Short) Truthy() bool  { return v != 0 }
func (v Int) Truthy() bool    { return v != 0 }
func (v Long) Truthy() bool   { return v != 0 }
func (v Float) Truthy() bool  { return v != 0 && !isNaN(float64(v)) }
func (v Double) Truthy() bool { return v != 0 && !isNaN(float64(v)) }

func (v Byte) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Short) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Long) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Double) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

func (v Byte) Equals(other Value) bool   { return numEquals(v, other) }
func (v Short) Equals(other Value) bool  { return numEquals(v, other) }
func (v Int) Equals(other Value) bool    { return numEquals(v, other) }
func (v Long) Equals(other Value) bool   { return numEquals(v, other) }
func (v Float) Equals(other Value) bool  { return numEquals(v, other) }
func (v Double) Equals(other Value) bool { return numEquals(v, other) }

func numEquals(a, b Value) bool {
	if !KindOf(b).IsNumeric() {
		return false
	}
	var c, err = Compare(a, b)
	return err == nil && c == 0 && !(isNaN(ToFloat64(a)) || isNaN(ToFloat64(b)))
}

// Promote returns the kind both operands of a binary numeric operator are
// converted to: the wider of the two, and never narrower than int.
func Promote(a, b Kind) Kind {
	var k = KindInt
	if a > k {
		k = a
	}
	if b > k {
		k = b
	}
	return k
}

// ToInt64 returns the integral value of a numeric Value, truncating fractions.
// Non-numeric values return 0.
func ToInt64(v Value) int64 {
	switch v := v.(type) {
	case Byte:
		return int64(v)
	case Short:
		return int64(v)
	case Int:
		return int64(v)
	case Long:
		return int64(v)
	case Float:
		return int64(v)
	case Double:
		return int64(v)
	}
	return 0
}

// ToFloat64 returns the value of a numeric Value as a float64.
// Non-numeric values return NaN.
func ToFloat64(v Value) float64 {
	switch v := v.(type) {
	case Byte:
		return float64(v)
	case Short:
		return float64(v)
	case Int:
		return float64(v)
	case Long:
		return float64(v)
	case Float:
		return float64(v)
	case Double:
		return float64(v)
	}
	return math.NaN()
}

// FromInt64 wraps n as a value of the integral kind k, truncating to the
// kind's width.  Floating kinds convert.
func FromInt64(k Kind, n int64) Value {
	switch k {
	case KindByte:
		return Byte(n)
	case KindShort:
		return Short(n)
	case KindInt:
		return Int(n)
	case KindFloat:
		return Float(n)
	case KindDouble:
		return Double(n)
	}
	return Long(n)
}

// FromFloat64 wraps f as a value of the numeric kind k.
func FromFloat64(k Kind, f float64) Value {
	switch k {
	case KindByte:
		return Byte(int64(f))
	case KindShort:
		return Short(int64(f))
	case KindInt:
		return Int(int64(f))
	case KindLong:
		return Long(int64(f))
	case KindFloat:
		return Float(f)
	}
	return Double(f)
}

// Cast returns v as a value of numeric kind k.
func Cast(v Value, k Kind) (Value, error) {
	var vk = KindOf(v)
	switch {
	case !vk.IsNumeric():
		return nil, fmt.Errorf("cannot convert %s to %s", vk, k)
	case !k.IsNumeric():
		return nil, fmt.Errorf("cannot convert %s to %s", vk, k)
	case vk.IsIntegral():
		return FromInt64(k, ToInt64(v)), nil
	}
	return FromFloat64(k, ToFloat64(v)), nil
}

// Compare orders two values of compatible kinds, returning -1, 0 or 1.
// Numbers compare by value, strings lexically, and false sorts before true.
func Compare(a, b Value) (int, error) {
	var ak, bk = KindOf(a), KindOf(b)
	switch {
	case ak.IsNumeric() && bk.IsNumeric():
		if Promote(ak, bk).IsIntegral() {
			return cmpOrdered(ToInt64(a), ToInt64(b)), nil
		}
		return cmpOrdered(ToFloat64(a), ToFloat64(b)), nil
	case ak == KindString && bk == KindString:
		return cmpOrdered(a.String(), b.String()), nil
	case ak == KindBool && bk == KindBool:
		var x, y = a.(Bool), b.(Bool)
		switch {
		case x == y:
			return 0, nil
		case !bool(x):
			return -1, nil
		}
		return 1, nil
	}
	return 0, fmt.Errorf("can not compare %s with %s", ak, bk)
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
