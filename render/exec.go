// Package render executes parsed templates.
//
// Expressions are evaluated on an explicit value stack: each node pushes its
// result, operators pop their operands.  Statements write to the output as
// they are visited; a failed render leaves whatever was already written.
package render

import (
	"io"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/template"
)

// state represents the state of an execution.
type state struct {
	*Runtime
	stack []data.Value
}

// Execute renders tmpl to w, looking variables up in ctx.
func Execute(env *Env, tmpl *template.Template, ctx *Context, w io.Writer) error {
	return Run(env, tmpl, ctx, w, func(rt *Runtime) {
		var s = &state{Runtime: rt}
		rt.Macro = s.macro
		s.walk(tmpl.Root)
	})
}

// Eval evaluates a single expression against ctx.
func Eval(env *Env, expr ast.Node, ctx *Context) (v data.Value, err error) {
	var tmpl = &template.Template{Name: "expression", Source: expr.String(), Root: &ast.RootNode{}}
	err = Run(env, tmpl, ctx, io.Discard, func(rt *Runtime) {
		var s = &state{Runtime: rt}
		rt.Macro = s.macro
		v = s.eval(expr)
	})
	return v, err
}

func (s *state) macro(m *ast.MacroNode) data.Value {
	if m.Value != nil {
		return s.eval(m.Value)
	}
	s.walkBody(m)
	return nil
}

// walk executes a statement.
func (s *state) walk(node ast.Node) {
	s.At(node.Position())
	switch node := node.(type) {
	case *ast.RootNode:
		s.walkBody(node)
	case *ast.TextNode:
		s.Text(node.Text)
	case *ast.ValueNode:
		s.Print(s.eval(node.Expr), node.NoFilter)
	case *ast.VarNode:
		if node.Init != nil {
			s.Assign(node.Pos, node.Name, node.Type, s.eval(node.Init))
		}
	case *ast.IfNode:
		if s.Cond(s.eval(node.Cond)) {
			s.walkBody(node)
			s.Keep(true)
		}
	case *ast.ElseNode:
		if !s.Pending() {
			return
		}
		if node.Cond != nil {
			if !s.Cond(s.eval(node.Cond)) {
				return
			}
		}
		s.walkBody(node)
		s.Keep(true)
	case *ast.ForNode:
		s.BeginLoop(node.Pos, s.eval(node.Iterable))
		s.loop(node)
		s.EndLoop()
	case *ast.BreakNode:
		if node.Cond == nil || Truthy(s.eval(node.Cond)) {
			panic(BreakSignal{})
		}
	case *ast.MacroNode:
		// declarations only
	default:
		s.Errorf(node.Position(), "unknown node: %T", node)
	}
}

func (s *state) walkBody(node ast.ParentNode) {
	for _, child := range node.Children() {
		s.walk(child)
	}
}

// loop runs the body once per element, until the iterator is exhausted or a
// #break unwinds it.
func (s *state) loop(node *ast.ForNode) {
	defer func() {
		if e := recover(); e != nil {
			if _, ok := e.(BreakSignal); !ok {
				panic(e)
			}
		}
	}()
	for s.Next(node.Pos, node.Var, node.Type) {
		s.walkBody(node)
	}
}

// eval evaluates an expression and returns its value.
func (s *state) eval(node ast.Node) data.Value {
	var base = len(s.stack)
	s.push(node)
	var v = s.stack[base]
	s.stack = s.stack[:base]
	return v
}

func (s *state) pop() data.Value {
	var v = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v
}

// popN removes the top n values, returning them in push order.
func (s *state) popN(n int) []data.Value {
	var vals = make([]data.Value, n)
	copy(vals, s.stack[len(s.stack)-n:])
	s.stack = s.stack[:len(s.stack)-n]
	return vals
}

// push evaluates node and pushes its value onto the stack.
func (s *state) push(node ast.Node) {
	s.At(node.Position())
	switch node := node.(type) {
	case *ast.ConstantNode:
		if node.BoxedNull || node.Value == nil {
			s.stack = append(s.stack, data.Null{})
		} else {
			s.stack = append(s.stack, node.Value)
		}

	case *ast.VariableNode:
		s.stack = append(s.stack, s.Lookup(node.Name))

	case *ast.UnaryOpNode:
		s.push(node.Arg)
		var v, err = Unary(node.Op, s.pop())
		if err != nil {
			s.Fail(node.Pos, err)
		}
		s.stack = append(s.stack, v)

	case *ast.BinaryOpNode:
		s.pushBinary(node)

	case *ast.TernaryNode:
		s.push(node.Cond)
		if Truthy(s.pop()) {
			s.push(node.Then)
		} else {
			s.push(node.Else)
		}

	case *ast.ListLiteralNode:
		for _, item := range node.Items {
			s.push(item)
		}
		s.stack = append(s.stack, data.List(s.popN(len(node.Items))))

	case *ast.MapLiteralNode:
		for _, v := range node.Values {
			s.push(v)
		}
		var vals = s.popN(len(node.Values))
		var m = make(data.Map, len(vals))
		for i, k := range node.Keys {
			m[k] = vals[i]
		}
		s.stack = append(s.stack, m)

	default:
		s.Errorf(node.Position(), "not an expression: %T", node)
	}
}

func (s *state) pushBinary(node *ast.BinaryOpNode) {
	switch node.Op {
	case ast.OpAnd, ast.OpOr:
		// The right operand is only evaluated when the left one does not
		// decide the result.
		s.push(node.Left)
		if Truthy(s.stack[len(s.stack)-1]) == (node.Op == ast.OpOr) {
			return
		}
		s.pop()
		s.push(node.Right)
		return

	case ast.OpCall:
		var hasRecv = node.Left != nil
		if hasRecv {
			s.push(node.Left)
		}
		var nargs = 0
		if params, ok := node.Right.(*ast.ParametersNode); ok {
			for _, arg := range params.Args {
				s.push(arg)
			}
			nargs = len(params.Args)
		}
		var args = s.popN(nargs)
		var recv data.Value
		if hasRecv {
			recv = s.pop()
		}
		s.stack = append(s.stack, s.Call(node.Pos, node.Member, recv, hasRecv, args))
		return
	}

	s.push(node.Left)
	s.push(node.Right)
	var b, a = s.pop(), s.pop()
	var v, err = Binary(node.Op, a, b)
	if err != nil {
		s.Fail(node.Pos, err)
	}
	s.stack = append(s.stack, v)
}
