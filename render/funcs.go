package render

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/robfig/hashtpl/data"
)

// Func represents a function that may be invoked within a template.  A Func
// bound in scope under a name may be called like a builtin.
type Func struct {
	Apply           func([]data.Value) (data.Value, error)
	ValidArgLengths []int
}

func (f Func) Truthy() bool                 { return f.Apply != nil }
func (f Func) String() string               { return "function" }
func (f Func) Equals(other data.Value) bool { return false }

// Funcs contains the builtin functions.
// Callers may add their own functions to this map before rendering begins.
var Funcs = map[string]Func{
	"isNonnull":   {funcIsNonnull, []int{1}},
	"length":      {funcLength, []int{1}},
	"keys":        {funcKeys, []int{1}},
	"augmentMap":  {funcAugmentMap, []int{2}},
	"round":       {funcRound, []int{1, 2}},
	"floor":       {funcFloor, []int{1}},
	"ceiling":     {funcCeiling, []int{1}},
	"min":         {funcMin, []int{2}},
	"max":         {funcMax, []int{2}},
	"randomInt":   {funcRandomInt, []int{1}},
	"strContains": {funcStrContains, []int{2}},
	"range":       {funcRange, []int{1, 2, 3}},
}

func (f Func) accepts(n int) bool {
	for _, l := range f.ValidArgLengths {
		if l == n {
			return true
		}
	}
	return false
}

func funcIsNonnull(v []data.Value) (data.Value, error) {
	return data.Bool(!data.IsNil(v[0])), nil
}

func funcLength(v []data.Value) (data.Value, error) {
	switch arg := v[0].(type) {
	case data.List:
		return data.Int(len(arg)), nil
	case data.Map:
		return data.Int(len(arg)), nil
	case data.String, data.Safe:
		return data.Int(len([]rune(arg.String()))), nil
	case data.Iterable:
		return data.Int(arg.Len()), nil
	}
	return nil, fmt.Errorf("length: expected list, got %s", data.Describe(v[0]))
}

func funcKeys(v []data.Value) (data.Value, error) {
	var m, ok = v[0].(data.Map)
	if !ok {
		return nil, fmt.Errorf("keys: expected map, got %s", data.Describe(v[0]))
	}
	var keys = make(data.List, 0, len(m))
	for _, k := range m.Keys() {
		keys = append(keys, data.String(k))
	}
	return keys, nil
}

func funcAugmentMap(v []data.Value) (data.Value, error) {
	var m1, ok1 = v[0].(data.Map)
	var m2, ok2 = v[1].(data.Map)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("augmentMap: expected two maps, got %s and %s",
			data.Describe(v[0]), data.Describe(v[1]))
	}
	var result = make(data.Map, len(m1)+len(m2)+4)
	for k, v := range m1 {
		result[k] = v
	}
	for k, v := range m2 {
		result[k] = v
	}
	return result, nil
}

func funcRound(v []data.Value) (data.Value, error) {
	if err := numeric("round", v[0]); err != nil {
		return nil, err
	}
	var digitsAfterPt = 0
	if len(v) == 2 {
		var err error
		if digitsAfterPt, err = data.ArgInt(v, 1); err != nil {
			return nil, err
		}
	}
	var result = round(data.ToFloat64(v[0]), digitsAfterPt)
	if digitsAfterPt <= 0 {
		return data.Long(result), nil
	}
	return data.Double(result), nil
}

func round(x float64, prec int) float64 {
	pow := math.Pow(10, float64(prec))
	intermed := x * pow
	if intermed < 0.0 {
		intermed -= 0.5
	} else {
		intermed += 0.5
	}
	return float64(int64(intermed)) / float64(pow)
}

func funcFloor(v []data.Value) (data.Value, error) {
	if err := numeric("floor", v[0]); err != nil {
		return nil, err
	}
	if data.KindOf(v[0]).IsIntegral() {
		return v[0], nil
	}
	return data.Long(math.Floor(data.ToFloat64(v[0]))), nil
}

func funcCeiling(v []data.Value) (data.Value, error) {
	if err := numeric("ceiling", v[0]); err != nil {
		return nil, err
	}
	if data.KindOf(v[0]).IsIntegral() {
		return v[0], nil
	}
	return data.Long(math.Ceil(data.ToFloat64(v[0]))), nil
}

func funcMin(v []data.Value) (data.Value, error) {
	var c, err = data.Compare(v[0], v[1])
	if err != nil {
		return nil, fmt.Errorf("min: %v", err)
	}
	if c <= 0 {
		return v[0], nil
	}
	return v[1], nil
}

func funcMax(v []data.Value) (data.Value, error) {
	var c, err = data.Compare(v[0], v[1])
	if err != nil {
		return nil, fmt.Errorf("max: %v", err)
	}
	if c >= 0 {
		return v[0], nil
	}
	return v[1], nil
}

func funcRandomInt(v []data.Value) (data.Value, error) {
	var n, err = data.ArgInt(v, 0)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("randomInt: bound must be positive, got %d", n)
	}
	return data.Int(rand.Int63n(int64(n))), nil
}

func funcStrContains(v []data.Value) (data.Value, error) {
	var s, err = data.ArgString(v, 0)
	if err != nil {
		return nil, err
	}
	sub, err := data.ArgString(v, 1)
	if err != nil {
		return nil, err
	}
	return data.Bool(strings.Contains(s, sub)), nil
}

func funcRange(v []data.Value) (data.Value, error) {
	var (
		increment = 1
		init      = 0
		limit     int
		err       error
	)
	for i := range v {
		if _, err = data.ArgInt(v, i); err != nil {
			return nil, err
		}
	}
	switch len(v) {
	case 3:
		increment, _ = data.ArgInt(v, 2)
		fallthrough
	case 2:
		init, _ = data.ArgInt(v, 0)
		limit, _ = data.ArgInt(v, 1)
	case 1:
		limit, _ = data.ArgInt(v, 0)
	}
	if increment == 0 {
		return nil, fmt.Errorf("range: increment must not be zero")
	}

	var indices data.List
	for index := init; (increment > 0 && index < limit) || (increment < 0 && index > limit); index += increment {
		indices = append(indices, data.Int(index))
	}
	return indices, nil
}

func numeric(name string, v data.Value) error {
	if !data.KindOf(v).IsNumeric() {
		return fmt.Errorf("%s: expected number, got %s", name, data.Describe(v))
	}
	return nil
}
