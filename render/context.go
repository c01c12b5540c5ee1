package render

import (
	"errors"
	"sync/atomic"

	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/resolver"
)

// Vars is the backing store of a context frame.
type Vars interface {
	Get(name string) (data.Value, bool)
	Put(name string, v data.Value)
}

// MapVars returns Vars backed by m.  A nil map is allocated on first Put.
func MapVars(m data.Map) Vars {
	return &mapVars{m}
}

type mapVars struct {
	m data.Map
}

func (v *mapVars) Get(name string) (data.Value, bool) {
	val, ok := v.m[name]
	return val, ok
}

func (v *mapVars) Put(name string, val data.Value) {
	if v.m == nil {
		v.m = make(data.Map)
	}
	v.m[name] = val
}

// Overlay returns Vars that read through to parent for names it does not bind
// itself.  Puts never reach the parent.
func Overlay(parent Vars) Vars {
	return &overlay{parent: parent}
}

type overlay struct {
	local  data.Map
	parent Vars
}

func (o *overlay) Get(name string) (data.Value, bool) {
	if val, ok := o.local[name]; ok {
		return val, true
	}
	return o.parent.Get(name)
}

func (o *overlay) Put(name string, val data.Value) {
	if o.local == nil {
		o.local = make(data.Map)
	}
	o.local[name] = val
}

// ErrContextInUse is returned when a context is rendered with while another
// render holds it.
var ErrContextInUse = errors.New("context is already in use by another render")

// Context is one frame of the variable scope of a render.  A frame sees only
// the names bound in its own Vars; Overlay gives a child frame a view of its
// parent.  The root frame falls back to its resolvers, in order.
//
// A context chain belongs to one render at a time.
type Context struct {
	parent    *Context
	vars      Vars
	resolvers []resolver.Resolver
	level     int
	busy      *atomic.Bool // shared by every frame of the chain
}

// NewContext returns a root context.  Nil vars are replaced by an empty map.
func NewContext(vars Vars, resolvers ...resolver.Resolver) *Context {
	if vars == nil {
		vars = MapVars(nil)
	}
	return &Context{vars: vars, resolvers: resolvers, busy: new(atomic.Bool)}
}

// Get looks the name up in this frame, then, at the root, in the resolvers.
func (c *Context) Get(name string) (data.Value, bool) {
	if v, ok := c.vars.Get(name); ok {
		return v, true
	}
	if c.parent == nil {
		for _, r := range c.resolvers {
			if v, ok := r.Get(name); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Put binds name in this frame.
func (c *Context) Put(name string, v data.Value) {
	c.vars.Put(name, v)
}

// Push returns a child frame backed by vars.
func (c *Context) Push(vars Vars) *Context {
	if vars == nil {
		vars = MapVars(nil)
	}
	return &Context{parent: c, vars: vars, level: c.level + 1, busy: c.busy}
}

// Pop returns the parent frame, or nil at the root.
func (c *Context) Pop() *Context {
	return c.parent
}

// Level is 0 for the root frame and increases by one per Push.
func (c *Context) Level() int {
	return c.level
}

// acquire marks the chain as in use by a render.
func (c *Context) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrContextInUse
	}
	return nil
}

func (c *Context) release() {
	c.busy.Store(false)
}
