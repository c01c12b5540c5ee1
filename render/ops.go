package render

import (
	"fmt"
	"math"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/data"
)

// Unary applies a unary operator.  Numeric operands narrower than int are
// widened to int first.
func Unary(op ast.Operator, v data.Value) (data.Value, error) {
	if op == ast.OpNot {
		return data.Bool(!Truthy(v)), nil
	}
	var k = data.KindOf(v)
	if !k.IsNumeric() {
		return nil, fmt.Errorf("operator %s not supported for %s", op, data.Describe(v))
	}
	k = data.Promote(k, k)
	switch op {
	case ast.OpPos:
		return promote(v, k), nil
	case ast.OpNeg:
		if k.IsIntegral() {
			return data.FromInt64(k, -data.ToInt64(v)), nil
		}
		return data.FromFloat64(k, -data.ToFloat64(v)), nil
	case ast.OpBitNot:
		if k.IsIntegral() {
			return data.FromInt64(k, ^data.ToInt64(v)), nil
		}
	}
	return nil, fmt.Errorf("operator %s not supported for %s", op, k)
}

// Binary applies a binary operator to evaluated operands.  Numeric operands
// are promoted to the wider of the two kinds, and never narrower than int;
// the result has that kind.  The left operand's kind alone is not used, so
// 1 + 2L is a long rather than an int.  Shifts are the exception: their
// result takes the kind of the shifted operand.  && and || select one of the
// operands.
func Binary(op ast.Operator, a, b data.Value) (data.Value, error) {
	switch op {
	case ast.OpAnd:
		if !Truthy(a) {
			return a, nil
		}
		return b, nil
	case ast.OpOr:
		if Truthy(a) {
			return a, nil
		}
		return b, nil
	case ast.OpEq:
		return data.Bool(equal(a, b)), nil
	case ast.OpNe:
		return data.Bool(!equal(a, b)), nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return compare(op, a, b)
	case ast.OpIndex:
		return index(a, b)
	case ast.OpAdd:
		var ak, bk = data.KindOf(a), data.KindOf(b)
		if ak == data.KindString || bk == data.KindString {
			return data.String(a.String() + b.String()), nil
		}
		if ak == data.KindList && bk == data.KindList {
			var l = make(data.List, 0, len(a.(data.List))+len(b.(data.List)))
			return append(append(l, a.(data.List)...), b.(data.List)...), nil
		}
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		if x, ok := a.(data.Bool); ok {
			if y, ok := b.(data.Bool); ok {
				return logical(op, bool(x), bool(y)), nil
			}
		}
	}

	var ak, bk = data.KindOf(a), data.KindOf(b)
	if !ak.IsNumeric() || !bk.IsNumeric() {
		return nil, unsupported(op, a, b)
	}
	var k = data.Promote(ak, bk)
	switch op {
	case ast.OpShl, ast.OpShr, ast.OpUshr:
		// The shifted operand alone determines the result kind.
		k = data.Promote(ak, ak)
		if !k.IsIntegral() || !bk.IsIntegral() {
			return nil, unsupported(op, a, b)
		}
		return shift(op, k, data.ToInt64(a), data.ToInt64(b)), nil
	case ast.OpRange:
		if !k.IsIntegral() {
			return nil, unsupported(op, a, b)
		}
		return data.Range{From: data.ToInt64(a), To: data.ToInt64(b), Kind: k}, nil
	}
	if k.IsIntegral() {
		return integral(op, k, data.ToInt64(a), data.ToInt64(b))
	}
	return floating(op, k, data.ToFloat64(a), data.ToFloat64(b))
}

func unsupported(op ast.Operator, a, b data.Value) error {
	return fmt.Errorf("operator %s not supported for %s and %s", op, data.Describe(a), data.Describe(b))
}

func integral(op ast.Operator, k data.Kind, x, y int64) (data.Value, error) {
	var r int64
	switch op {
	case ast.OpAdd:
		r = x + y
	case ast.OpSub:
		r = x - y
	case ast.OpMul:
		r = x * y
	case ast.OpDiv, ast.OpMod:
		if y == 0 {
			return nil, fmt.Errorf("integer division by zero")
		}
		if op == ast.OpDiv {
			r = x / y
		} else {
			r = x % y
		}
	case ast.OpBitAnd:
		r = x & y
	case ast.OpBitOr:
		r = x | y
	case ast.OpBitXor:
		r = x ^ y
	default:
		return nil, fmt.Errorf("operator %s not supported for %s", op, k)
	}
	return data.FromInt64(k, r), nil
}

func floating(op ast.Operator, k data.Kind, x, y float64) (data.Value, error) {
	var r float64
	switch op {
	case ast.OpAdd:
		r = x + y
	case ast.OpSub:
		r = x - y
	case ast.OpMul:
		r = x * y
	case ast.OpDiv:
		r = x / y
	case ast.OpMod:
		r = math.Mod(x, y)
	default:
		return nil, fmt.Errorf("operator %s not supported for %s", op, k)
	}
	return data.FromFloat64(k, r), nil
}

func shift(op ast.Operator, k data.Kind, x, n int64) data.Value {
	var width uint = 32
	if k == data.KindLong {
		width = 64
	}
	var s = uint(n) & (width - 1)
	switch op {
	case ast.OpShl:
		return data.FromInt64(k, x<<s)
	case ast.OpShr:
		return data.FromInt64(k, x>>s)
	}
	if width == 32 {
		return data.FromInt64(k, int64(uint32(x)>>s))
	}
	return data.FromInt64(k, int64(uint64(x)>>s))
}

func logical(op ast.Operator, x, y bool) data.Value {
	switch op {
	case ast.OpBitAnd:
		return data.Bool(x && y)
	case ast.OpBitOr:
		return data.Bool(x || y)
	}
	return data.Bool(x != y)
}

func compare(op ast.Operator, a, b data.Value) (data.Value, error) {
	var c, err = data.Compare(a, b)
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.OpLt:
		return data.Bool(c < 0), nil
	case ast.OpLe:
		return data.Bool(c <= 0), nil
	case ast.OpGt:
		return data.Bool(c > 0), nil
	}
	return data.Bool(c >= 0), nil
}

func equal(a, b data.Value) bool {
	if data.IsNil(a) || data.IsNil(b) {
		return data.IsNil(a) && data.IsNil(b)
	}
	return a.Equals(b)
}

func index(recv, key data.Value) (data.Value, error) {
	switch recv := recv.(type) {
	case nil, data.Undefined, data.Null:
		return data.Null{}, nil
	case data.List:
		if !data.KindOf(key).IsIntegral() {
			return nil, fmt.Errorf("list index must be an integer, got %s", data.Describe(key))
		}
		var v = recv.Index(int(data.ToInt64(key)))
		if _, ok := v.(data.Undefined); ok {
			return data.Null{}, nil
		}
		return v, nil
	case data.Map:
		if data.KindOf(key) != data.KindString {
			return nil, fmt.Errorf("map key must be a string, got %s", data.Describe(key))
		}
		if v, ok := recv[key.String()]; ok {
			return v, nil
		}
		return data.Null{}, nil
	}
	return nil, fmt.Errorf("can not index %s", data.Describe(recv))
}

func promote(v data.Value, k data.Kind) data.Value {
	var r, _ = data.Cast(v, k)
	return r
}

// Truthy is the single truthiness rule used by #if, #for, !, && and ||.
func Truthy(v data.Value) bool {
	return v != nil && v.Truthy()
}
