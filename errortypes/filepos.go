package errortypes

import (
	"errors"
	"fmt"
)

// ErrFilePos extends the error interface to add details on the file position where the error occurred.
type ErrFilePos interface {
	error
	File() string
	Line() int
	Col() int
}

// Position locates a byte offset within a named template.
type Position struct {
	Name   string // template name
	Offset int    // absolute byte offset
	Line   int    // 1-based
	Col    int    // 1-based, in bytes
}

// Locate computes the line and column of the given offset in source.
func Locate(name, source string, offset int) Position {
	if offset > len(source) {
		offset = len(source)
	}
	var line, col = 1, 1
	for i := 0; i < offset; i++ {
		if source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{name, offset, line, col}
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Name, p.Line, p.Col)
}

// NewErrFilePosf creates an error conforming to the ErrFilePos interface.
func NewErrFilePosf(file string, line, col int, format string, args ...interface{}) error {
	return &errFilePos{
		error: fmt.Errorf(format, args...),
		pos:   Position{Name: file, Line: line, Col: col},
	}
}

// IsErrFilePos identifies whether or not the provided error, or any error it wraps, is of the ErrFilePos type.
func IsErrFilePos(err error) bool {
	return ToErrFilePos(err) != nil
}

// ToErrFilePos converts the input error to an ErrFilePos if possible, or nil if not.
// If IsErrFilePos returns true, this will not return nil.
func ToErrFilePos(err error) ErrFilePos {
	if err == nil {
		return nil
	}
	var out ErrFilePos
	if errors.As(err, &out) {
		return out
	}
	return nil
}

var _ ErrFilePos = &errFilePos{}

type errFilePos struct {
	error
	pos Position
}

func (e *errFilePos) File() string { return e.pos.Name }
func (e *errFilePos) Line() int    { return e.pos.Line }
func (e *errFilePos) Col() int     { return e.pos.Col }
