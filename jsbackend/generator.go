package jsbackend

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/data"
)

// The generated script calls back into the render Runtime through these
// host functions.  Values never cross into JavaScript: the script passes
// around integer handles to values held by the render.  Names and literal
// text are passed as indexes into the program's string table.
const (
	fnText    = "$t"       // $t(str)
	fnPrint   = "$o"       // $o(pos, h, raw)
	fnConst   = "$c"       // $c(const) -> h
	fnVar     = "$v"       // $v(pos, str) -> h
	fnUnary   = "$u"       // $u(pos, op, h) -> h
	fnBinary  = "$b"       // $b(pos, op, h, h) -> h
	fnMember  = "$m"       // $m(pos, str, recv, args...) -> h
	fnCall    = "$f"       // $f(pos, str, args...) -> h
	fnList    = "$list"    // $list(h...) -> h
	fnMap     = "$map"     // $map(str, h, ...) -> h
	fnSet     = "$s"       // $s(pos, str, str, h)
	fnIf      = "$if"      // $if(h) -> bool
	fnPending = "$pending" // $pending() -> bool
	fnKeep    = "$keep"    // $keep()
	fnIter    = "$iter"    // $iter(pos, h)
	fnNext    = "$next"    // $next(pos, str, str) -> bool
	fnDone    = "$done"    // $done()
	fnTruthy  = "$truthy"  // $truthy(h) -> bool

	renderFunc  = "$render"
	macroPrefix = "M_"
)

// generator writes the JavaScript for one template.
type generator struct {
	wr           bytes.Buffer
	node         ast.Node // current node, for errors
	indentLevels int
	strs         []string
	strIndex     map[string]int
	consts       []data.Value
}

// generate returns the script for root along with its string and constant
// tables.
func generate(root *ast.RootNode) (src string, strs []string, consts []data.Value, err error) {
	defer errRecover(&err)
	var s = &generator{strIndex: make(map[string]int)}

	var names = make([]string, 0, len(root.Macros))
	for name := range root.Macros {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.visitMacro(root.Macros[name])
	}

	s.jsln("function ", renderFunc, "() {")
	s.indentLevels++
	s.walkBody(root)
	s.indentLevels--
	s.jsln("}")
	return s.wr.String(), s.strs, s.consts, nil
}

// errorf formats the error and terminates processing.
func (s *generator) errorf(format string, args ...interface{}) {
	if s.node != nil {
		format = "offset " + pos(s.node) + ": " + format
	}
	panic(fmt.Errorf(format, args...))
}

// errRecover is the handler that turns panics into returns from the top
// level of generate.
func errRecover(errp *error) {
	if e := recover(); e != nil {
		if err, ok := e.(error); ok {
			*errp = err
			return
		}
		*errp = fmt.Errorf("%v", e)
	}
}

func (s *generator) str(v string) string {
	var i, ok = s.strIndex[v]
	if !ok {
		i = len(s.strs)
		s.strs = append(s.strs, v)
		s.strIndex[v] = i
	}
	return strconv.Itoa(i)
}

func pos(n ast.Node) string {
	return strconv.Itoa(int(n.Position()))
}

func (s *generator) visitMacro(node *ast.MacroNode) {
	s.node = node
	s.jsln("function ", macroPrefix, node.Name, "() {")
	s.indentLevels++
	if node.Value != nil {
		s.jsln("return ", s.expr(node.Value), ";")
	} else {
		s.walkBody(node)
	}
	s.indentLevels--
	s.jsln("}")
}

func (s *generator) walkBody(node ast.ParentNode) {
	for _, child := range node.Children() {
		s.walk(child)
	}
}

// walk writes the statements for a node.
func (s *generator) walk(node ast.Node) {
	s.node = node
	switch node := node.(type) {
	case *ast.TextNode:
		s.jsln(fnText, "(", s.str(node.Text), ");")
	case *ast.ValueNode:
		s.jsln(fnPrint, "(", pos(node), ", ", s.expr(node.Expr), ", ", strconv.FormatBool(node.NoFilter), ");")
	case *ast.VarNode:
		if node.Init != nil {
			s.jsln(fnSet, "(", pos(node), ", ", s.str(node.Name), ", ", s.str(node.Type), ", ", s.expr(node.Init), ");")
		}
	case *ast.IfNode:
		s.jsln("if (", fnIf, "(", s.expr(node.Cond), ")) {")
		s.block(node)
		s.jsln("}")
	case *ast.ElseNode:
		s.jsln("if (", fnPending, "()) {")
		s.indentLevels++
		if node.Cond != nil {
			s.jsln("if (", fnIf, "(", s.expr(node.Cond), ")) {")
			s.block(node)
			s.jsln("}")
		} else {
			s.walkBody(node)
			s.jsln(fnKeep, "();")
		}
		s.indentLevels--
		s.jsln("}")
	case *ast.ForNode:
		s.jsln(fnIter, "(", pos(node), ", ", s.expr(node.Iterable), ");")
		s.jsln("while (", fnNext, "(", pos(node), ", ", s.str(node.Var), ", ", s.str(node.Type), ")) {")
		s.indentLevels++
		s.walkBody(node)
		s.indentLevels--
		s.jsln("}")
		s.jsln(fnDone, "();")
	case *ast.BreakNode:
		if node.Cond == nil {
			s.jsln("break;")
		} else {
			s.jsln("if (", fnTruthy, "(", s.expr(node.Cond), ")) break;")
		}
	case *ast.MacroNode:
		// written by visitMacro
	default:
		s.errorf("unknown node: %T", node)
	}
}

// block writes the body of a branch that records that it ran.
func (s *generator) block(node ast.ParentNode) {
	s.indentLevels++
	s.walkBody(node)
	s.jsln(fnKeep, "();")
	s.indentLevels--
}

// expr returns the JavaScript for an expression, which evaluates to a
// value handle.
func (s *generator) expr(node ast.Node) string {
	switch node := node.(type) {
	case *ast.ConstantNode:
		var v = node.Value
		if node.BoxedNull || v == nil {
			v = data.Null{}
		}
		s.consts = append(s.consts, v)
		return call(fnConst, strconv.Itoa(len(s.consts)-1))
	case *ast.VariableNode:
		return call(fnVar, pos(node), s.str(node.Name))
	case *ast.UnaryOpNode:
		return call(fnUnary, pos(node), strconv.Itoa(int(node.Op)), s.expr(node.Arg))
	case *ast.BinaryOpNode:
		return s.binary(node)
	case *ast.TernaryNode:
		return "(" + call(fnTruthy, s.expr(node.Cond)) + " ? " + s.expr(node.Then) + " : " + s.expr(node.Else) + ")"
	case *ast.ListLiteralNode:
		var items = make([]string, len(node.Items))
		for i, item := range node.Items {
			items[i] = s.expr(item)
		}
		return call(fnList, items...)
	case *ast.MapLiteralNode:
		var args []string
		for i, k := range node.Keys {
			args = append(args, s.str(k), s.expr(node.Values[i]))
		}
		return call(fnMap, args...)
	}
	s.errorf("not an expression: %T", node)
	return ""
}

func (s *generator) binary(node *ast.BinaryOpNode) string {
	switch node.Op {
	case ast.OpAnd, ast.OpOr:
		// The right operand is evaluated only if the left does not decide.
		var then, els = "l", s.expr(node.Right)
		if node.Op == ast.OpAnd {
			then, els = els, then
		}
		return "(function(l) { return " + call(fnTruthy, "l") + " ? " + then + " : " + els + "; })(" + s.expr(node.Left) + ")"
	case ast.OpCall:
		var args []string
		if params, ok := node.Right.(*ast.ParametersNode); ok {
			for _, arg := range params.Args {
				args = append(args, s.expr(arg))
			}
		}
		if node.Left == nil {
			return call(fnCall, append([]string{pos(node), s.str(node.Member)}, args...)...)
		}
		return call(fnMember, append([]string{pos(node), s.str(node.Member), s.expr(node.Left)}, args...)...)
	}
	return call(fnBinary, pos(node), strconv.Itoa(int(node.Op)), s.expr(node.Left), s.expr(node.Right))
}

func call(fn string, args ...string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}

func (s *generator) indent() {
	for i := 0; i < s.indentLevels; i++ {
		s.wr.WriteString("  ")
	}
}

func (s *generator) jsln(args ...string) {
	s.indent()
	for _, arg := range args {
		s.wr.WriteString(arg)
	}
	s.wr.WriteString("\n")
}
