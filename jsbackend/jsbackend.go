// Package jsbackend renders templates by compiling them to JavaScript and
// running the script on the otto interpreter.
//
// The script only encodes control flow.  Every value operation calls back
// into a render.Runtime, so output is identical to the tree-walking
// interpreter for any template both accept.
package jsbackend

import (
	"fmt"
	"io"
	"sync"

	"github.com/robertkrimen/otto"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/render"
	"github.com/robfig/hashtpl/template"
)

// Program is a template compiled to JavaScript.  It may be executed
// concurrently.
type Program struct {
	tmpl   *template.Template
	source string
	strs   []string
	consts []data.Value

	mu   sync.Mutex // guards copying base
	base *otto.Otto // has the script's functions defined
}

// Compile generates and loads the script for tmpl.
func Compile(tmpl *template.Template) (*Program, error) {
	var src, strs, consts, err = generate(tmpl.Root)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", tmpl.Name, err)
	}
	var vm = otto.New()
	script, err := vm.Compile(tmpl.Name+".js", src)
	if err != nil {
		return nil, fmt.Errorf("template %s: compiling script: %w", tmpl.Name, err)
	}
	if _, err = vm.Run(script); err != nil {
		return nil, fmt.Errorf("template %s: loading script: %w", tmpl.Name, err)
	}
	return &Program{tmpl: tmpl, source: src, strs: strs, consts: consts, base: vm}, nil
}

// Source returns the generated JavaScript.
func (p *Program) Source() string {
	return p.source
}

// Template returns the template the program was compiled from.
func (p *Program) Template() *template.Template {
	return p.tmpl
}

// Execute renders the program to w, looking variables up in ctx.
func (p *Program) Execute(env *render.Env, ctx *render.Context, w io.Writer) error {
	return render.Run(env, p.tmpl, ctx, w, func(rt *render.Runtime) {
		p.mu.Lock()
		var vm = p.base.Copy()
		p.mu.Unlock()

		var s = &session{Runtime: rt, prog: p, vm: vm}
		s.bind()
		rt.Macro = s.macro
		s.call(renderFunc)
	})
}

// session is the state of one execution.
type session struct {
	*render.Runtime
	prog    *Program
	vm      *otto.Otto
	vals    []data.Value // values referenced by handle from the script
	failure interface{}  // panic raised by a host function
}

// call runs a script function, re-raising any failure of the host
// functions it called.
func (s *session) call(fn string) otto.Value {
	var v, err = s.vm.Call(fn, nil)
	if s.failure != nil {
		panic(s.failure)
	}
	if err != nil {
		s.Fail(s.Pos(), err)
	}
	return v
}

func (s *session) macro(m *ast.MacroNode) data.Value {
	var v = s.call(macroPrefix + m.Name)
	if m.Value == nil {
		return nil
	}
	return s.value(v)
}

// handle stores v and returns its handle.
func (s *session) handle(v data.Value) otto.Value {
	if v == nil {
		v = data.Null{}
	}
	s.vals = append(s.vals, v)
	return s.num(len(s.vals) - 1)
}

func (s *session) num(n int) otto.Value {
	var v, err = otto.ToValue(n)
	if err != nil {
		panic(err)
	}
	return v
}

func (s *session) boolean(b bool) otto.Value {
	if b {
		return otto.TrueValue()
	}
	return otto.FalseValue()
}

func (s *session) integer(arg otto.Value) int {
	var n, err = arg.ToInteger()
	if err != nil {
		panic(err)
	}
	return int(n)
}

func (s *session) value(arg otto.Value) data.Value {
	var i = s.integer(arg)
	if i < 0 || i >= len(s.vals) {
		panic(fmt.Errorf("invalid value handle %d", i))
	}
	return s.vals[i]
}

func (s *session) str(arg otto.Value) string {
	return s.prog.strs[s.integer(arg)]
}

func (s *session) pos(arg otto.Value) ast.Pos {
	var p = ast.Pos(s.integer(arg))
	s.At(p)
	return p
}

func (s *session) values(args []otto.Value) []data.Value {
	var vals = make([]data.Value, len(args))
	for i, arg := range args {
		vals[i] = s.value(arg)
	}
	return vals
}

// host adapts fn to an otto function.  A panic is recorded before it unwinds
// through the interpreter, so it survives even if otto converts it.
func (s *session) host(fn func(args []otto.Value) otto.Value) func(otto.FunctionCall) otto.Value {
	return func(call otto.FunctionCall) otto.Value {
		defer func() {
			if e := recover(); e != nil {
				if s.failure == nil {
					s.failure = e
				}
				panic(e)
			}
		}()
		return fn(call.ArgumentList)
	}
}

func (s *session) set(name string, fn func(args []otto.Value) otto.Value) {
	if err := s.vm.Set(name, s.host(fn)); err != nil {
		panic(err)
	}
}

// bind installs the host functions.
func (s *session) bind() {
	var none = otto.UndefinedValue()
	s.set(fnText, func(a []otto.Value) otto.Value {
		s.Text(s.str(a[0]))
		return none
	})
	s.set(fnPrint, func(a []otto.Value) otto.Value {
		s.pos(a[0])
		var raw, _ = a[2].ToBoolean()
		s.Print(s.value(a[1]), raw)
		return none
	})
	s.set(fnConst, func(a []otto.Value) otto.Value {
		return s.handle(s.prog.consts[s.integer(a[0])])
	})
	s.set(fnVar, func(a []otto.Value) otto.Value {
		s.pos(a[0])
		return s.handle(s.Lookup(s.str(a[1])))
	})
	s.set(fnUnary, func(a []otto.Value) otto.Value {
		var p = s.pos(a[0])
		var v, err = render.Unary(ast.Operator(s.integer(a[1])), s.value(a[2]))
		if err != nil {
			s.Fail(p, err)
		}
		return s.handle(v)
	})
	s.set(fnBinary, func(a []otto.Value) otto.Value {
		var p = s.pos(a[0])
		var v, err = render.Binary(ast.Operator(s.integer(a[1])), s.value(a[2]), s.value(a[3]))
		if err != nil {
			s.Fail(p, err)
		}
		return s.handle(v)
	})
	s.set(fnMember, func(a []otto.Value) otto.Value {
		var p = s.pos(a[0])
		return s.handle(s.Call(p, s.str(a[1]), s.value(a[2]), true, s.values(a[3:])))
	})
	s.set(fnCall, func(a []otto.Value) otto.Value {
		var p = s.pos(a[0])
		return s.handle(s.Call(p, s.str(a[1]), nil, false, s.values(a[2:])))
	})
	s.set(fnList, func(a []otto.Value) otto.Value {
		return s.handle(data.List(s.values(a)))
	})
	s.set(fnMap, func(a []otto.Value) otto.Value {
		var m = make(data.Map, len(a)/2)
		for i := 0; i+1 < len(a); i += 2 {
			m[s.str(a[i])] = s.value(a[i+1])
		}
		return s.handle(m)
	})
	s.set(fnSet, func(a []otto.Value) otto.Value {
		var p = s.pos(a[0])
		s.Assign(p, s.str(a[1]), s.str(a[2]), s.value(a[3]))
		return none
	})
	s.set(fnIf, func(a []otto.Value) otto.Value {
		return s.boolean(s.Cond(s.value(a[0])))
	})
	s.set(fnPending, func(a []otto.Value) otto.Value {
		return s.boolean(s.Pending())
	})
	s.set(fnKeep, func(a []otto.Value) otto.Value {
		s.Keep(true)
		return none
	})
	s.set(fnIter, func(a []otto.Value) otto.Value {
		var p = s.pos(a[0])
		s.BeginLoop(p, s.value(a[1]))
		return none
	})
	s.set(fnNext, func(a []otto.Value) otto.Value {
		var p = s.pos(a[0])
		return s.boolean(s.Next(p, s.str(a[1]), s.str(a[2])))
	})
	s.set(fnDone, func(a []otto.Value) otto.Value {
		s.EndLoop()
		return none
	})
	s.set(fnTruthy, func(a []otto.Value) otto.Value {
		return s.boolean(render.Truthy(s.value(a[0])))
	})
}
