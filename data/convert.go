package data

import (
	"fmt"
	"reflect"
	"time"
	"unicode"
	"unicode/utf8"
)

// Marshaler is implemented by types that convert themselves to a Value.
type Marshaler interface {
	MarshalValue() Value
}

var timeType = reflect.TypeOf(time.Time{})

// DefaultStructOptions is used by New and Convert.
var DefaultStructOptions = StructOptions{
	LowerCamel: true,
	TimeFormat: time.RFC3339,
}

// StructOptions controls how structs become Maps.
type StructOptions struct {
	LowerCamel bool   // lower-case the first letter of field names
	TimeFormat string // layout for time.Time values; RFC 3339 if empty
}

// New converts a Go value to a template value, using DefaultStructOptions for
// structs.  It panics on types it cannot represent, such as channels or maps
// with struct keys.
func New(value interface{}) Value {
	return NewWith(DefaultStructOptions, value)
}

// Convert is like New, but returns an error instead of panicking.
func Convert(value interface{}) (v Value, err error) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case error:
			err = r
		default:
			err = fmt.Errorf("%v", r)
		}
	}()
	return New(value), nil
}

// NewWith is like New with the given options for structs.
//
// Values and Marshalers are used as-is.  Pointers and interfaces are followed;
// nil ones become Null, as do nil slices.  Integers keep their width, except
// unsigned ones which widen to the next signed kind that holds them.
func NewWith(opts StructOptions, value interface{}) Value {
	if value == nil {
		return Null{}
	}
	return opts.convert(reflect.ValueOf(value))
}

// Data converts a struct to a Map of its exported fields.
func (o StructOptions) Data(obj interface{}) Map {
	return o.fields(reflect.Indirect(reflect.ValueOf(obj)))
}

func (o StructOptions) convert(v reflect.Value) Value {
	for v.IsValid() {
		if v.CanInterface() {
			switch x := v.Interface().(type) {
			case Value:
				return x
			case Marshaler:
				return x.MarshalValue()
			}
		}
		if k := v.Kind(); k != reflect.Ptr && k != reflect.Interface {
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return Null{}
	}

	switch v.Kind() {
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.String:
		return String(v.String())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int, reflect.Int64:
		return signed(v.Kind(), v.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsigned(v.Kind(), v.Uint())
	case reflect.Float32:
		return Float(v.Float())
	case reflect.Float64:
		return Double(v.Float())
	case reflect.Slice:
		if v.IsNil() {
			return Null{}
		}
		return o.list(v)
	case reflect.Array:
		return o.list(v)
	case reflect.Map:
		var m = make(Map, v.Len())
		for it := v.MapRange(); it.Next(); {
			m[mapKey(it.Key())] = o.convert(it.Value())
		}
		return m
	case reflect.Struct:
		if v.Type() == timeType {
			var layout = o.TimeFormat
			if layout == "" {
				layout = time.RFC3339
			}
			return String(v.Interface().(time.Time).Format(layout))
		}
		return o.fields(v)
	}
	panic(fmt.Errorf("unexpected data type: %s", v.Type()))
}

func signed(k reflect.Kind, i int64) Value {
	switch k {
	case reflect.Int8:
		return Byte(i)
	case reflect.Int16:
		return Short(i)
	case reflect.Int32:
		return Int(i)
	}
	return Long(i)
}

func unsigned(k reflect.Kind, u uint64) Value {
	switch k {
	case reflect.Uint8:
		return Short(u)
	case reflect.Uint16:
		return Int(u)
	}
	return Long(u)
}

func (o StructOptions) list(v reflect.Value) List {
	var l = make(List, v.Len())
	for i := range l {
		l[i] = o.convert(v.Index(i))
	}
	return l
}

func (o StructOptions) fields(v reflect.Value) Map {
	var t = v.Type()
	var m = make(Map, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		var f = t.Field(i)
		if !f.IsExported() {
			continue
		}
		var name = f.Name
		if o.LowerCamel {
			var r, n = utf8.DecodeRuneInString(name)
			name = string(unicode.ToLower(r)) + name[n:]
		}
		m[name] = o.convert(v.Field(i))
	}
	return m
}

func mapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprint(k.Interface())
	}
	panic(fmt.Errorf("unsupported map key type: %s", k.Type()))
}
