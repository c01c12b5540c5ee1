package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/errortypes"
	"github.com/robfig/hashtpl/filter"
	"github.com/robfig/hashtpl/template"
)

// DefaultMaxDepth bounds macro recursion when Env.MaxDepth is unset.
const DefaultMaxDepth = 100

// DefaultStatusName is the name the loop status is bound to in a #for body.
const DefaultStatusName = "status"

// ifKey holds the outcome of the last #if, #else or #for in a frame.  It can
// not collide with a template variable.
const ifKey = "#if"

// Env holds the collaborators shared by every render of an engine.  It is
// read-only once rendering begins.
type Env struct {
	Formatter   filter.Formatter // nil formats with filter.Default
	TextFilter  filter.Filter    // applied to literal text
	ValueFilter filter.Filter    // applied to ${} output
	Funcs       map[string]Func  // nil uses the builtin Funcs
	MaxDepth    int
	StatusName  string
}

func (e *Env) withDefaults() *Env {
	var env Env
	if e != nil {
		env = *e
	}
	if env.Formatter == nil {
		env.Formatter = filter.Default{}
	}
	if env.TextFilter == nil {
		env.TextFilter = filter.None
	}
	if env.ValueFilter == nil {
		env.ValueFilter = filter.None
	}
	if env.Funcs == nil {
		env.Funcs = Funcs
	}
	if env.MaxDepth <= 0 {
		env.MaxDepth = DefaultMaxDepth
	}
	if env.StatusName == "" {
		env.StatusName = DefaultStatusName
	}
	return &env
}

// Runtime is the state of one render.  It carries out the semantics of each
// statement and leaves traversal to the backend driving it.
//
// Methods report evaluation errors by panicking with an *errortypes.EvalError;
// Run recovers them.
type Runtime struct {
	Env  *Env
	Tmpl *template.Template
	Ctx  *Context
	W    io.Writer

	// Macro executes the body of a text macro, or evaluates a value macro,
	// against the frame already prepared by CallMacro.
	Macro func(m *ast.MacroNode) data.Value

	loops []*loop
	depth int
	pos   ast.Pos // current position, for errors
}

type loop struct {
	it     data.Iterator
	status *Status
	outer  *Context
}

// Run renders with a fresh Runtime: it claims ctx, calls fn, and converts a
// failure raised by any Runtime method into the returned error.
func Run(env *Env, tmpl *template.Template, ctx *Context, w io.Writer, fn func(rt *Runtime)) (err error) {
	if ctx == nil {
		ctx = NewContext(nil)
	}
	if err := ctx.acquire(); err != nil {
		return err
	}
	defer ctx.release()

	var rt = &Runtime{Env: env.withDefaults(), Tmpl: tmpl, Ctx: ctx, W: w}
	defer rt.recover(&err)
	fn(rt)
	return nil
}

// recover turns panics into returns from Run.
func (rt *Runtime) recover(errp *error) {
	var e = recover()
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *errortypes.EvalError:
		*errp = e
	case BreakSignal:
		*errp = rt.newError(rt.pos, errors.New("#break outside of #for"))
	case runtime.Error:
		*errp = rt.newError(rt.pos, fmt.Errorf("%v\n%s", e, debug.Stack()))
	case error:
		*errp = rt.newError(rt.pos, e)
	default:
		*errp = rt.newError(rt.pos, fmt.Errorf("%v", e))
	}
}

func (rt *Runtime) newError(pos ast.Pos, err error) *errortypes.EvalError {
	return errortypes.NewEvalError(rt.Tmpl.Name, rt.Tmpl.Source, int(pos), err)
}

// BreakSignal unwinds a #for loop.
type BreakSignal struct{}

// At records the position being evaluated.
func (rt *Runtime) At(pos ast.Pos) {
	rt.pos = pos
}

// Pos returns the position last recorded by At.
func (rt *Runtime) Pos() ast.Pos {
	return rt.pos
}

// Fail aborts the render with err, located at pos.
func (rt *Runtime) Fail(pos ast.Pos, err error) {
	panic(rt.newError(pos, err))
}

// Errorf aborts the render with a formatted error located at pos.
func (rt *Runtime) Errorf(pos ast.Pos, format string, args ...interface{}) {
	rt.Fail(pos, fmt.Errorf(format, args...))
}

func (rt *Runtime) write(s string) {
	if _, err := io.WriteString(rt.W, s); err != nil {
		rt.Fail(rt.pos, err)
	}
}

// Text writes literal template text through the text filter.
func (rt *Runtime) Text(text string) {
	rt.write(rt.Env.TextFilter.Filter(rt.Tmpl.Name, text))
}

// Print formats v and writes it.  Unless raw, the text passes through the
// value filter.  Safe text is written as is.
func (rt *Runtime) Print(v data.Value, raw bool) {
	if s, ok := v.(data.Safe); ok {
		rt.write(string(s))
		return
	}
	var text = rt.Env.Formatter.Format(v)
	if !raw {
		text = rt.Env.ValueFilter.Filter(rt.Tmpl.Name, text)
	}
	rt.write(text)
}

// Lookup returns the value bound to name, or null.
func (rt *Runtime) Lookup(name string) data.Value {
	if v, ok := rt.Ctx.Get(name); ok && v != nil {
		return v
	}
	return data.Null{}
}

// Assign binds name in the current frame.  A declared numeric or string type
// converts the value.
func (rt *Runtime) Assign(pos ast.Pos, name, typ string, v data.Value) {
	if typ != "" && !data.IsNil(v) {
		var k, ok = data.KindNamed(typ)
		switch {
		case !ok:
		case k.IsNumeric():
			var cast, err = data.Cast(v, k)
			if err != nil {
				rt.Fail(pos, fmt.Errorf("%s: %v", name, err))
			}
			v = cast
		case k == data.KindString:
			if _, isSafe := v.(data.Safe); !isSafe {
				v = data.String(v.String())
			}
		case k != data.KindOf(v):
			rt.Errorf(pos, "%s: can not assign %s to %s", name, data.Describe(v), typ)
		}
	}
	rt.Ctx.Put(name, v)
}

// Keep records whether the current branch ran, for a following #else.
func (rt *Runtime) Keep(ran bool) {
	rt.Ctx.Put(ifKey, data.Bool(ran))
}

// Cond records and returns the truth of an #if condition.
func (rt *Runtime) Cond(v data.Value) bool {
	var ok = Truthy(v)
	rt.Keep(ok)
	return ok
}

// Pending reports whether no branch of the current #if chain has run yet.
// An #else following a #for is pending when the loop did not iterate.
func (rt *Runtime) Pending() bool {
	var v, _ = rt.Ctx.Get(ifKey)
	return !Truthy(v)
}

// BeginLoop starts iterating over v.
func (rt *Runtime) BeginLoop(pos ast.Pos, v data.Value) {
	var it, n, err = data.Iterate(v)
	if err != nil {
		rt.Fail(pos, err)
	}
	var parent *Status
	if len(rt.loops) > 0 {
		parent = rt.loops[len(rt.loops)-1].status
	}
	rt.loops = append(rt.loops, &loop{it, newStatus(parent, n), rt.Ctx})
}

// Next advances the innermost loop.  Each element gets a fresh frame with
// the element bound to name and the loop status bound to Env.StatusName.
func (rt *Runtime) Next(pos ast.Pos, name, typ string) bool {
	var l = rt.loops[len(rt.loops)-1]
	var v, ok = l.it.Next()
	if !ok {
		return false
	}
	l.status.index++
	rt.Ctx = l.outer.Push(Overlay(l.outer))
	rt.Ctx.Put(rt.Env.StatusName, l.status)
	rt.Assign(pos, name, typ, v)
	return true
}

// EndLoop finishes the innermost loop and records whether it iterated.
func (rt *Runtime) EndLoop() {
	var l = rt.loops[len(rt.loops)-1]
	rt.loops = rt.loops[:len(rt.loops)-1]
	rt.Ctx = l.outer
	rt.Keep(l.status.index >= 0)
}

// Loop returns the status of the innermost loop, or nil.
func (rt *Runtime) Loop() *Status {
	if len(rt.loops) == 0 {
		return nil
	}
	return rt.loops[len(rt.loops)-1].status
}

// Call invokes a member of recv, or, with no receiver, a macro, a function
// bound in scope, or a builtin function.  Members of null are null.
func (rt *Runtime) Call(pos ast.Pos, name string, recv data.Value, hasRecv bool, args []data.Value) data.Value {
	if hasRecv {
		if data.IsNil(recv) {
			return data.Null{}
		}
		var m, ok = data.LookupMember(recv, name)
		if !ok {
			rt.Errorf(pos, "%s has no member %q", data.Describe(recv), name)
		}
		if !m.Accepts(len(args)) {
			rt.Errorf(pos, "%s.%s: invalid number of arguments: %d", data.Describe(recv), name, len(args))
		}
		var v, err = m.Apply(recv, args)
		if err != nil {
			rt.Fail(pos, fmt.Errorf("%s.%s: %w", data.Describe(recv), name, err))
		}
		return v
	}

	if m, ok := rt.Tmpl.Macro(name); ok {
		return rt.CallMacro(pos, m, args)
	}
	if v, ok := rt.Ctx.Get(name); ok {
		if fn, ok := v.(Func); ok {
			return rt.apply(pos, name, fn, args)
		}
	}
	if fn, ok := rt.Env.Funcs[name]; ok {
		return rt.apply(pos, name, fn, args)
	}
	rt.Errorf(pos, "undefined function or macro %s", name)
	return nil
}

func (rt *Runtime) apply(pos ast.Pos, name string, fn Func, args []data.Value) data.Value {
	if !fn.accepts(len(args)) {
		rt.Errorf(pos, "%s: invalid number of arguments: %d", name, len(args))
	}
	var v, err = fn.Apply(args)
	if err != nil {
		rt.Fail(pos, fmt.Errorf("%s: %w", name, err))
	}
	if v == nil {
		return data.Null{}
	}
	return v
}

// CallMacro invokes m in a new frame that binds its parameters and sees the
// caller's scope.  A text macro returns its output as Safe text.
func (rt *Runtime) CallMacro(pos ast.Pos, m *ast.MacroNode, args []data.Value) data.Value {
	if len(args) != len(m.Params) {
		rt.Errorf(pos, "macro %s: expected %d arguments, got %d", m.Name, len(m.Params), len(args))
	}
	if rt.depth >= rt.Env.MaxDepth {
		rt.Errorf(pos, "macro %s: maximum depth %d exceeded", m.Name, rt.Env.MaxDepth)
	}

	var ctx, w, loops = rt.Ctx, rt.W, rt.loops
	defer func() {
		rt.Ctx, rt.W, rt.loops = ctx, w, loops
		rt.depth--
	}()
	rt.depth++
	rt.Ctx = ctx.Push(Overlay(ctx))
	for i, p := range m.Params {
		rt.Ctx.Put(p, args[i])
	}

	if m.Value != nil {
		var v = rt.Macro(m)
		if v == nil {
			return data.Null{}
		}
		return v
	}
	var buf bytes.Buffer
	rt.W = &buf
	rt.Macro(m)
	return data.Safe(buf.String())
}
