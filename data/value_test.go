package data

import (
	"math"
	"reflect"
	"testing"
)

// Ensure all of the data types implement Value
var (
	_ Value = Undefined{}
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Byte(0)
	_ Value = Short(0)
	_ Value = Int(0)
	_ Value = Long(0)
	_ Value = Float(0.0)
	_ Value = Double(0.0)
	_ Value = String("")
	_ Value = Safe("")
	_ Value = List{}
	_ Value = Map{}
	_ Value = Range{}
)

func TestKey(t *testing.T) {
	tests := []struct {
		input    interface{}
		key      string
		expected interface{}
	}{
		{map[string]interface{}{}, "foo", Undefined{}},
		{map[string]interface{}{"foo": nil}, "foo", Null{}},
	}

	for _, test := range tests {
		actual := New(test.input).(Map).Key(test.key)
		if !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%v => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		input    interface{}
		index    int
		expected interface{}
	}{
		{[]interface{}{}, 0, Undefined{}},
		{[]interface{}{1}, 0, Long(1)},
		{[]int32{1}, 0, Int(1)},
	}

	for _, test := range tests {
		actual := New(test.input).(List).Index(test.index)
		if !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%v => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		input    Value
		expected bool
	}{
		{Undefined{}, false},
		{Null{}, false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), false},
		{Byte(-1), true},
		{Long(2), true},
		{Double(0), false},
		{Double(math.NaN()), false},
		{Float(0.5), true},
		{String(""), false},
		{String("a"), true},
		{Safe(""), false},
		{List{}, false},
		{List{Null{}}, true},
		{Map{}, false},
		{Map{"a": Null{}}, true},
		{Range{1, 1, KindInt}, true},
	}
	for _, test := range tests {
		if actual := test.input.Truthy(); actual != test.expected {
			t.Errorf("%#v.Truthy() => %v, expected %v", test.input, actual, test.expected)
		}
	}
}

func TestEquals(t *testing.T) {
	tests := []struct {
		a, b     Value
		expected bool
	}{
		{Int(1), Long(1), true},
		{Int(1), Double(1.0), true},
		{Byte(-1), Short(-1), true},
		{Float(0.5), Double(0.5), true},
		{Int(1), Double(1.5), false},
		{Int(1), String("1"), false},
		{Double(math.NaN()), Double(math.NaN()), false},
		{String("a"), Safe("a"), true},
		{Null{}, Undefined{}, false},
		{List{Int(1), String("a")}, List{Long(1), String("a")}, true},
		{List{Int(1)}, List{Int(1), Int(2)}, false},
		{Map{"a": Int(1)}, Map{"a": Int(1)}, true},
		{Map{"a": Int(1)}, Map{"b": Int(1)}, false},
	}
	for _, test := range tests {
		if actual := test.a.Equals(test.b); actual != test.expected {
			t.Errorf("%#v.Equals(%#v) => %v, expected %v", test.a, test.b, actual, test.expected)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input    Value
		expected string
	}{
		{Null{}, "null"},
		{Undefined{}, ""},
		{Int(-3), "-3"},
		{Double(1.5), "1.5"},
		{Float(0.1), "0.1"},
		{List{Int(1), String("a")}, "[1, a]"},
		{Map{"b": Int(2), "a": Int(1)}, "{a: 1, b: 2}"},
		{Range{1, 3, KindInt}, "1..3"},
	}
	for _, test := range tests {
		if actual := test.input.String(); actual != test.expected {
			t.Errorf("%#v.String() => %q, expected %q", test.input, actual, test.expected)
		}
	}
}
