package data

import "fmt"

// Kind is the runtime type tag of a Value.  Numeric kinds are declared in
// order of increasing width, which is the order binary promotion follows.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindList
	KindMap
	KindObject
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "bool",
	KindByte:      "byte",
	KindShort:     "short",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindString:    "string",
	KindList:      "list",
	KindMap:       "map",
	KindObject:    "object",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsNumeric reports whether k is one of the fixed-width numeric kinds.
func (k Kind) IsNumeric() bool { return KindByte <= k && k <= KindDouble }

// IsIntegral reports whether k is a numeric kind without a fraction.
func (k Kind) IsIntegral() bool { return KindByte <= k && k <= KindLong }

// KindOf returns the kind of v.
func KindOf(v Value) Kind {
	switch v.(type) {
	case nil, Undefined:
		return KindUndefined
	case Null:
		return KindNull
	case Bool:
		return KindBool
	case Byte:
		return KindByte
	case Short:
		return KindShort
	case Int:
		return KindInt
	case Long:
		return KindLong
	case Float:
		return KindFloat
	case Double:
		return KindDouble
	case String, Safe:
		return KindString
	case List:
		return KindList
	case Map:
		return KindMap
	}
	return KindObject
}

// KindNamed returns the kind for a declared type name such as "int" or
// "String", as written in #var and #set declarations.
func KindNamed(name string) (Kind, bool) {
	switch name {
	case "boolean", "bool", "Boolean":
		return KindBool, true
	case "byte", "Byte":
		return KindByte, true
	case "short", "Short":
		return KindShort, true
	case "int", "Integer":
		return KindInt, true
	case "long", "Long":
		return KindLong, true
	case "float", "Float":
		return KindFloat, true
	case "double", "Double":
		return KindDouble, true
	case "String", "string", "char":
		return KindString, true
	case "List", "list", "Collection":
		return KindList, true
	case "Map", "map":
		return KindMap, true
	}
	return KindObject, false
}
