package render

import (
	"strconv"

	"github.com/robfig/hashtpl/data"
)

// Status tracks the iteration of one #for loop.  It is bound in the loop body
// under the configured status name (default "status").
type Status struct {
	parent *Status
	size   int // -1 when not known up front
	level  int
	index  int
}

var _ data.Object = (*Status)(nil)

func newStatus(parent *Status, size int) *Status {
	var level = 1
	if parent != nil {
		level = parent.level + 1
	}
	return &Status{parent: parent, size: size, level: level, index: -1}
}

// Parent is the status of the enclosing loop, or nil.
func (s *Status) Parent() *Status { return s.parent }

// Index is the 0-based index of the current element.
func (s *Status) Index() int { return s.index }

// Size is the number of elements, or -1 if unknown.
func (s *Status) Size() int { return s.size }

// Level is 1 for an outermost loop.
func (s *Status) Level() int { return s.level }

func (s *Status) First() bool { return s.index == 0 }
func (s *Status) Last() bool  { return s.size >= 0 && s.index == s.size-1 }

func (s *Status) Truthy() bool { return true }

func (s *Status) String() string {
	return "status(" + strconv.Itoa(s.index) + "/" + strconv.Itoa(s.size) + ")"
}

func (s *Status) Equals(other data.Value) bool {
	o, ok := other.(*Status)
	return ok && o == s
}

var statusMembers = map[string]func(s *Status) data.Value{
	"index":   func(s *Status) data.Value { return data.Int(s.index) },
	"count":   func(s *Status) data.Value { return data.Int(s.index + 1) },
	"size":    func(s *Status) data.Value { return data.Int(s.size) },
	"level":   func(s *Status) data.Value { return data.Int(s.level) },
	"first":   func(s *Status) data.Value { return data.Bool(s.First()) },
	"last":    func(s *Status) data.Value { return data.Bool(s.Last()) },
	"odd":     func(s *Status) data.Value { return data.Bool(s.index%2 == 1) },
	"even":    func(s *Status) data.Value { return data.Bool(s.index%2 == 0) },
	"isFirst": func(s *Status) data.Value { return data.Bool(s.First()) },
	"isLast":  func(s *Status) data.Value { return data.Bool(s.Last()) },
	"isOdd":   func(s *Status) data.Value { return data.Bool(s.index%2 == 1) },
	"isEven":  func(s *Status) data.Value { return data.Bool(s.index%2 == 0) },
	"parent": func(s *Status) data.Value {
		if s.parent == nil {
			return data.Null{}
		}
		return s.parent
	},
}

func (s *Status) Member(name string) (data.Method, bool) {
	var fn, ok = statusMembers[name]
	if !ok {
		return data.Method{}, false
	}
	return data.Method{
		Apply:           func(data.Value, []data.Value) (data.Value, error) { return fn(s), nil },
		ValidArgLengths: []int{0},
	}, true
}
