package data

import (
	"fmt"
	"math"
	"strconv"
)

// Iterator yields the elements of a sequence once, in order.
type Iterator interface {
	Next() (Value, bool)
}

// Iterable is a Value that can be ranged over by #for.
type Iterable interface {
	Value
	Iterator() Iterator
	// Len returns the number of elements, or -1 if it is not known up front.
	Len() int
}

// Iterate returns an iterator over v and the number of elements it will
// yield (-1 if unknown).  Null and undefined yield nothing, lists yield their
// elements, maps yield {key, value} entries in key order, and any other
// primitive yields itself once.
func Iterate(v Value) (Iterator, int, error) {
	switch v := v.(type) {
	case nil, Undefined, Null:
		return &listIterator{}, 0, nil
	case List:
		return &listIterator{list: v}, len(v), nil
	case Map:
		var entries = make(List, 0, len(v))
		for _, k := range v.Keys() {
			entries = append(entries, Map{"key": String(k), "value": v[k]})
		}
		return &listIterator{list: entries}, len(entries), nil
	case Iterable:
		return v.Iterator(), v.Len(), nil
	}
	if KindOf(v) == KindObject {
		return nil, 0, fmt.Errorf("%s is not iterable", Describe(v))
	}
	return &listIterator{list: List{v}}, 1, nil
}

type listIterator struct {
	list List
	pos  int
}

func (it *listIterator) Next() (Value, bool) {
	if it.pos >= len(it.list) {
		return nil, false
	}
	it.pos++
	return it.list[it.pos-1], true
}

// Range is the inclusive sequence of integers produced by the .. operator.
// It counts down when From > To.
type Range struct {
	From, To int64
	Kind     Kind
}

var _ Iterable = Range{}

// Len returns the number of elements, or -1 when that does not fit in an
// int.
func (r Range) Len() int {
	var span = uint64(r.To - r.From)
	if r.From > r.To {
		span = uint64(r.From - r.To)
	}
	if span >= math.MaxInt {
		return -1
	}
	return int(span) + 1
}

func (r Range) Iterator() Iterator {
	var step int64 = 1
	if r.From > r.To {
		step = -1
	}
	return &rangeIterator{r, r.From, step, false}
}

func (r Range) Truthy() bool { return true }

func (r Range) String() string {
	return strconv.FormatInt(r.From, 10) + ".." + strconv.FormatInt(r.To, 10)
}

func (r Range) Equals(other Value) bool {
	o, ok := other.(Range)
	return ok && o.From == r.From && o.To == r.To
}

type rangeIterator struct {
	r    Range
	next int64
	step int64
	done bool
}

func (it *rangeIterator) Next() (Value, bool) {
	if it.done {
		return nil, false
	}
	var v = it.next
	if v == it.r.To {
		it.done = true
	} else {
		it.next += it.step
	}
	return FromInt64(it.r.Kind, v), true
}

// Describe names the kind of v for error messages.
func Describe(v Value) string {
	if k := KindOf(v); k != KindObject {
		return k.String()
	}
	return fmt.Sprintf("%T", v)
}
