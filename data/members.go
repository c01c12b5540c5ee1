package data

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Method is a named member of a value that may be invoked from a template,
// either as a property (`user.name`) or a call (`name.substring(1, 3)`).
type Method struct {
	Apply           func(recv Value, args []Value) (Value, error)
	ValidArgLengths []int
}

// Accepts reports whether the method may be invoked with n arguments.
func (m Method) Accepts(n int) bool {
	for _, l := range m.ValidArgLengths {
		if l == n {
			return true
		}
	}
	return false
}

// Object is implemented by custom values that expose their own members.
type Object interface {
	Value
	Member(name string) (Method, bool)
}

// Members is the registry of members available on each kind of value.
// Callers may add their own members before rendering begins.
var Members = map[Kind]map[string]Method{
	KindString: stringMembers,
	KindList:   listMembers,
	KindMap:    mapMembers,
	KindBool: {
		"not": {func(v Value, _ []Value) (Value, error) { return Bool(!v.Truthy()), nil }, []int{0}},
	},
}

func init() {
	for k := KindByte; k <= KindDouble; k++ {
		Members[k] = numberMembers
	}
}

// LookupMember resolves name on recv.  The exact name is tried first, then
// the getter conventions get<Name> and is<Name>, then a map key.  Missing
// keys of a map resolve to null.
func LookupMember(recv Value, name string) (Method, bool) {
	var upper = upperFirst(name)
	for _, candidate := range [...]string{name, "get" + upper, "is" + upper} {
		if obj, ok := recv.(Object); ok {
			if m, ok := obj.Member(candidate); ok {
				return m, true
			}
			continue
		}
		if m, ok := Members[KindOf(recv)][candidate]; ok {
			return m, true
		}
	}
	if m, ok := recv.(Map); ok {
		return Method{func(Value, []Value) (Value, error) {
			if v, ok := m[name]; ok {
				return v, nil
			}
			return Null{}, nil
		}, []int{0}}, true
	}
	return Method{}, false
}

func upperFirst(s string) string {
	var r, size = utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func method0(fn func(recv Value) Value) Method {
	return Method{func(recv Value, _ []Value) (Value, error) { return fn(recv), nil }, []int{0}}
}

// ArgString returns args[i] as a string.
func ArgString(args []Value, i int) (string, error) {
	switch v := args[i].(type) {
	case String:
		return string(v), nil
	case Safe:
		return string(v), nil
	}
	return "", fmt.Errorf("argument %d: expected string, got %s", i+1, Describe(args[i]))
}

// ArgInt returns args[i] as an int.
func ArgInt(args []Value, i int) (int, error) {
	if !KindOf(args[i]).IsIntegral() {
		return 0, fmt.Errorf("argument %d: expected integer, got %s", i+1, Describe(args[i]))
	}
	return int(ToInt64(args[i])), nil
}

var stringMembers = map[string]Method{
	"length": method0(func(v Value) Value { return Int(utf8.RuneCountInString(v.String())) }),
	"size":   method0(func(v Value) Value { return Int(utf8.RuneCountInString(v.String())) }),
	"isEmpty": method0(func(v Value) Value {
		return Bool(v.String() == "")
	}),
	"toUpperCase": method0(func(v Value) Value { return String(strings.ToUpper(v.String())) }),
	"toLowerCase": method0(func(v Value) Value { return String(strings.ToLower(v.String())) }),
	"title":       method0(func(v Value) Value { return String(cases.Title(language.Und).String(v.String())) }),
	"trim":        method0(func(v Value) Value { return String(strings.TrimSpace(v.String())) }),
	"contains":    stringPredicate(strings.Contains),
	"startsWith":  stringPredicate(strings.HasPrefix),
	"endsWith":    stringPredicate(strings.HasSuffix),
	"indexOf": {func(recv Value, args []Value) (Value, error) {
		var sub, err = ArgString(args, 0)
		if err != nil {
			return nil, err
		}
		var s = recv.String()
		var i = strings.Index(s, sub)
		if i < 0 {
			return Int(-1), nil
		}
		return Int(utf8.RuneCountInString(s[:i])), nil
	}, []int{1}},
	"substring": {func(recv Value, args []Value) (Value, error) {
		var runes = []rune(recv.String())
		var begin, err = ArgInt(args, 0)
		if err != nil {
			return nil, err
		}
		var end = len(runes)
		if len(args) == 2 {
			if end, err = ArgInt(args, 1); err != nil {
				return nil, err
			}
		}
		if begin < 0 || end > len(runes) || begin > end {
			return nil, fmt.Errorf("substring(%d, %d) out of range for length %d", begin, end, len(runes))
		}
		return String(runes[begin:end]), nil
	}, []int{1, 2}},
	"charAt": {func(recv Value, args []Value) (Value, error) {
		var runes = []rune(recv.String())
		var i, err = ArgInt(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(runes) {
			return nil, fmt.Errorf("charAt(%d) out of range for length %d", i, len(runes))
		}
		return String(runes[i]), nil
	}, []int{1}},
	"replace": {func(recv Value, args []Value) (Value, error) {
		var old, err = ArgString(args, 0)
		if err != nil {
			return nil, err
		}
		var repl string
		if repl, err = ArgString(args, 1); err != nil {
			return nil, err
		}
		return String(strings.ReplaceAll(recv.String(), old, repl)), nil
	}, []int{2}},
	"split": {func(recv Value, args []Value) (Value, error) {
		var sep, err = ArgString(args, 0)
		if err != nil {
			return nil, err
		}
		var result List
		for _, part := range strings.Split(recv.String(), sep) {
			result = append(result, String(part))
		}
		return result, nil
	}, []int{1}},
}

func stringPredicate(fn func(s, sub string) bool) Method {
	return Method{func(recv Value, args []Value) (Value, error) {
		var sub, err = ArgString(args, 0)
		if err != nil {
			return nil, err
		}
		return Bool(fn(recv.String(), sub)), nil
	}, []int{1}}
}

var listMembers = map[string]Method{
	"length":  method0(func(v Value) Value { return Int(len(v.(List))) }),
	"size":    method0(func(v Value) Value { return Int(len(v.(List))) }),
	"isEmpty": method0(func(v Value) Value { return Bool(len(v.(List)) == 0) }),
	"first":   method0(func(v Value) Value { return v.(List).Index(0) }),
	"last": method0(func(v Value) Value {
		var l = v.(List)
		return l.Index(len(l) - 1)
	}),
	"get": {func(recv Value, args []Value) (Value, error) {
		var i, err = ArgInt(args, 0)
		if err != nil {
			return nil, err
		}
		return recv.(List).Index(i), nil
	}, []int{1}},
	"contains": {func(recv Value, args []Value) (Value, error) {
		return Bool(indexOf(recv.(List), args[0]) >= 0), nil
	}, []int{1}},
	"indexOf": {func(recv Value, args []Value) (Value, error) {
		return Int(indexOf(recv.(List), args[0])), nil
	}, []int{1}},
	"join": {func(recv Value, args []Value) (Value, error) {
		var sep = ", "
		if len(args) == 1 {
			var err error
			if sep, err = ArgString(args, 0); err != nil {
				return nil, err
			}
		}
		var items = make([]string, len(recv.(List)))
		for i, item := range recv.(List) {
			items[i] = item.String()
		}
		return String(strings.Join(items, sep)), nil
	}, []int{0, 1}},
	"reverse": method0(func(v Value) Value {
		var l = v.(List)
		var result = make(List, len(l))
		for i, item := range l {
			result[len(l)-1-i] = item
		}
		return result
	}),
	"sort": {func(recv Value, _ []Value) (Value, error) {
		var result = append(List(nil), recv.(List)...)
		var err error
		sort.SliceStable(result, func(i, j int) bool {
			var c, cerr = Compare(result[i], result[j])
			if cerr != nil && err == nil {
				err = cerr
			}
			return c < 0
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}, []int{0}},
}

func indexOf(l List, v Value) int {
	for i, item := range l {
		if item.Equals(v) {
			return i
		}
	}
	return -1
}

var mapMembers = map[string]Method{
	"size":    method0(func(v Value) Value { return Int(len(v.(Map))) }),
	"isEmpty": method0(func(v Value) Value { return Bool(len(v.(Map)) == 0) }),
	"keys": method0(func(v Value) Value {
		var keys List
		for _, k := range v.(Map).Keys() {
			keys = append(keys, String(k))
		}
		return keys
	}),
	"values": method0(func(v Value) Value {
		var m = v.(Map)
		var values List
		for _, k := range m.Keys() {
			values = append(values, m[k])
		}
		return values
	}),
	"get": {func(recv Value, args []Value) (Value, error) {
		var k, err = ArgString(args, 0)
		if err != nil {
			return nil, err
		}
		if v, ok := recv.(Map)[k]; ok {
			return v, nil
		}
		return Null{}, nil
	}, []int{1}},
	"containsKey": {func(recv Value, args []Value) (Value, error) {
		var k, err = ArgString(args, 0)
		if err != nil {
			return nil, err
		}
		_, ok := recv.(Map)[k]
		return Bool(ok), nil
	}, []int{1}},
}

func numberConversion(k Kind) Method {
	return Method{func(recv Value, _ []Value) (Value, error) { return Cast(recv, k) }, []int{0}}
}

var numberMembers = map[string]Method{
	"toByte":   numberConversion(KindByte),
	"toShort":  numberConversion(KindShort),
	"toInt":    numberConversion(KindInt),
	"toLong":   numberConversion(KindLong),
	"toFloat":  numberConversion(KindFloat),
	"toDouble": numberConversion(KindDouble),
	"abs": method0(func(v Value) Value {
		var k = KindOf(v)
		if k.IsIntegral() {
			var n = ToInt64(v)
			if n < 0 {
				n = -n
			}
			return FromInt64(k, n)
		}
		return FromFloat64(k, math.Abs(ToFloat64(v)))
	}),
}
