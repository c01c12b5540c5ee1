// Package filter holds the collaborators that turn values into text and
// post-process text on its way to the output.
package filter

import (
	"github.com/robfig/hashtpl/data"
)

// Formatter converts an interpolated value to text.
type Formatter interface {
	Format(v data.Value) string
}

// Default formats values with their String method.  Null and undefined
// values are written as Null.
type Default struct {
	Null string
}

func (f Default) Format(v data.Value) string {
	if data.IsNil(v) {
		return f.Null
	}
	return v.String()
}

// Filter transforms text before it is written.  Key identifies where the
// text came from; it is the template name.
type Filter interface {
	Filter(key, text string) string
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(key, text string) string

func (fn FilterFunc) Filter(key, text string) string { return fn(key, text) }

// None passes text through unchanged.
var None Filter = FilterFunc(func(_, text string) string { return text })

// Chain applies each filter in turn.
func Chain(filters ...Filter) Filter {
	var nonNil []Filter
	for _, f := range filters {
		if f != nil {
			nonNil = append(nonNil, f)
		}
	}
	switch len(nonNil) {
	case 0:
		return None
	case 1:
		return nonNil[0]
	}
	return FilterFunc(func(key, text string) string {
		for _, f := range nonNil {
			text = f.Filter(key, text)
		}
		return text
	})
}
