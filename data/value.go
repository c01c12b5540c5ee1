// Package data holds the runtime values that templates operate on.
package data

import (
	"maps"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Value is a template value: one of the kinds declared in this package.
type Value interface {
	// Truthy reports whether the value counts as true in a condition.  False,
	// null, zero, NaN and empty strings, lists and maps are falsy.
	Truthy() bool

	// String is the value's rendered form.
	String() string

	// Equals compares by value.  Numbers of any kind compare numerically;
	// String and Safe compare as text; lists and maps compare element-wise.
	Equals(other Value) bool
}

type (
	// Undefined is the result of indexing past the end of a list or looking
	// up a missing map key.
	Undefined struct{}

	// Null is the null literal and the value of missing names.
	Null struct{}

	Bool   bool
	String string
	List   []Value
	Map    map[string]Value

	// Safe is text that has already been rendered and filtered, such as the
	// output of a macro.  Output filters leave it untouched.
	Safe string
)

// IsNil reports whether v is null or undefined.
func IsNil(v Value) bool {
	switch v.(type) {
	case nil, Undefined, Null:
		return true
	}
	return false
}

func (Undefined) Truthy() bool            { return false }
func (Undefined) String() string          { return "" }
func (Undefined) Equals(other Value) bool { return other == Undefined{} }
func (Null) Truthy() bool                 { return false }
func (Null) String() string               { return "null" }
func (Null) Equals(other Value) bool      { return other == Null{} }
func (v Bool) Truthy() bool               { return bool(v) }
func (v Bool) String() string             { return strconv.FormatBool(bool(v)) }

func (v Bool) Equals(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == v
}

func (v String) Truthy() bool   { return v != "" }
func (v String) String() string { return string(v) }

func (v String) Equals(other Value) bool {
	switch o := other.(type) {
	case String:
		return o == v
	case Safe:
		return string(o) == string(v)
	}
	return false
}

func (v Safe) Truthy() bool            { return v != "" }
func (v Safe) String() string          { return string(v) }
func (v Safe) Equals(other Value) bool { return String(v).Equals(other) }

// Index returns the i'th element, or Undefined when i is out of range.
func (v List) Index(i int) Value {
	if i < 0 || i >= len(v) {
		return Undefined{}
	}
	return v[i]
}

func (v List) Truthy() bool { return len(v) > 0 }

func (v List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (v List) Equals(other Value) bool {
	o, ok := other.(List)
	return ok && slices.EqualFunc(v, o, Value.Equals)
}

// Key returns the value stored under k, or Undefined.
func (v Map) Key(k string) Value {
	if val, ok := v[k]; ok {
		return val
	}
	return Undefined{}
}

// Lookup returns the value stored under name and whether it was present.
func (v Map) Lookup(name string) (Value, bool) {
	val, ok := v[name]
	return val, ok
}

// Set stores val under name.
func (v Map) Set(name string, val Value) { v[name] = val }

// Keys returns the map's keys in sorted order.
func (v Map) Keys() []string {
	var keys = make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Map) Truthy() bool { return len(v) > 0 }

// String lists the entries in key order.
func (v Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range v.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

func (v Map) Equals(other Value) bool {
	o, ok := other.(Map)
	return ok && maps.EqualFunc(v, o, Value.Equals)
}

func isNaN(f float64) bool { return math.IsNaN(f) }
