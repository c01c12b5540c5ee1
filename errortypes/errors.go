package errortypes

import (
	"errors"
	"fmt"
)

// ParseError is returned when a template can not be scanned or parsed.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) File() string { return e.Pos.Name }
func (e *ParseError) Line() int     { return e.Pos.Line }
func (e *ParseError) Col() int      { return e.Pos.Col }

func (e *ParseError) Error() string {
	return fmt.Sprintf("template %s: %s", e.Pos, e.Msg)
}

// NewParseError creates a ParseError located at the given offset in source.
func NewParseError(name, source string, offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{Locate(name, source, offset), fmt.Sprintf(format, args...)}
}

// EvalError is returned when rendering a template fails.
type EvalError struct {
	Pos Position
	Msg string
	Err error // underlying cause, if any
}

func (e *EvalError) File() string { return e.Pos.Name }
func (e *EvalError) Line() int     { return e.Pos.Line }
func (e *EvalError) Col() int      { return e.Pos.Col }

func (e *EvalError) Error() string {
	return fmt.Sprintf("template %s: %s", e.Pos, e.Msg)
}

func (e *EvalError) Unwrap() error { return e.Err }

// NewEvalError creates an EvalError located at the given offset in source.
func NewEvalError(name, source string, offset int, err error) *EvalError {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee
	}
	return &EvalError{Locate(name, source, offset), err.Error(), err}
}

// ResourceKind classifies a ResourceError.
type ResourceKind int

const (
	NotFound ResourceKind = iota
	IO
	Encoding
)

func (k ResourceKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case IO:
		return "i/o"
	case Encoding:
		return "encoding"
	}
	return "unknown"
}

// ErrNotFound is matched by errors.Is for every NotFound ResourceError.
var ErrNotFound = errors.New("template not found")

// ResourceError is returned by loaders.
type ResourceError struct {
	Name string
	Kind ResourceKind
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resource %s: %s", e.Name, e.Kind)
	}
	return fmt.Sprintf("resource %s: %s: %v", e.Name, e.Kind, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Is reports NotFound errors as ErrNotFound.
func (e *ResourceError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == NotFound
}

// NewNotFound returns a NotFound ResourceError for the named resource.
func NewNotFound(name string) error {
	return &ResourceError{Name: name, Kind: NotFound}
}
