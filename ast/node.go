// Package ast contains definitions for the in-memory representation of a
// template.
//
// Every node records its byte offset in the source and a single parent link.
// Links are assigned by Adopt and Append, which refuse to re-parent a node, so
// a parsed tree never shares a node between two parents.
package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/robfig/hashtpl/data"
)

// Node represents any singular piece of a template.  For example, a sequence
// of raw text or an interpolation.
type Node interface {
	String() string // String returns the template source representation of this node.
	Position() Pos  // byte position of start of node in full original input string
	Parent() Node   // the enclosing node, or nil for the root and unattached nodes

	setParent(Node) bool
}

// ParentNode is any Node that has descendent nodes.  For example, the Children
// of a BinaryOpNode are the two operands.
type ParentNode interface {
	Node
	Children() []Node
}

// BlockNode is a statement that owns an ordered body of statements, closed by
// an end marker.
type BlockNode interface {
	ParentNode
	appendChild(Node)
}

// Pos represents a byte position in the original input text from which this
// template was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.  It is implemented as a method so that Nodes
// may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

type link struct {
	parent Node
}

func (l *link) Parent() Node { return l.parent }

func (l *link) setParent(p Node) bool {
	if l.parent != nil {
		return false
	}
	l.parent = p
	return true
}

type body struct {
	nodes []Node
}

func (b *body) Children() []Node   { return b.nodes }
func (b *body) appendChild(n Node) { b.nodes = append(b.nodes, n) }
func (b *body) bodyString() string {
	var buf bytes.Buffer
	for _, n := range b.nodes {
		buf.WriteString(n.String())
	}
	return buf.String()
}

// ReparentError is returned when a node that already has a parent is
// attached to another.
type ReparentError struct {
	Node Node
}

func (e *ReparentError) Error() string {
	return fmt.Sprintf("node %q is already attached to a parent", e.Node)
}

// Adopt makes parent the parent of each non-nil child.
func Adopt(parent Node, children ...Node) error {
	for _, child := range children {
		if child == nil {
			continue
		}
		if !child.setParent(parent) {
			return &ReparentError{child}
		}
	}
	return nil
}

// Append adds child to the end of the block's body.
func Append(block BlockNode, child Node) error {
	if err := Adopt(block, child); err != nil {
		return err
	}
	block.appendChild(child)
	return nil
}

// Depth returns the deepest nesting of block statements beneath n.
func Depth(n Node) int {
	var max = 0
	if p, ok := n.(ParentNode); ok {
		for _, child := range p.Children() {
			var d = Depth(child)
			if _, isBlock := child.(BlockNode); isBlock {
				d++
			}
			if d > max {
				max = d
			}
		}
	}
	return max
}

// Statements -------------------------------------------------------------

// RootNode holds a parsed template.
type RootNode struct {
	body
	Name   string
	Macros map[string]*MacroNode // every macro declared in the template, by name
	Vars   []*VarNode            // declared external inputs, in order
}

func (n *RootNode) Position() Pos       { return 0 }
func (n *RootNode) Parent() Node        { return nil }
func (n *RootNode) setParent(Node) bool { return false }
func (n *RootNode) String() string      { return n.bodyString() }

// TextNode is literal text to be written out.
type TextNode struct {
	Pos
	link
	Text string
}

func (n *TextNode) String() string {
	return n.Text
}

// ValueNode writes the value of an expression.
type ValueNode struct {
	Pos
	link
	Expr     Node
	NoFilter bool // output is not passed through the value filter
}

func (n *ValueNode) String() string {
	if n.NoFilter {
		return "$!{" + n.Expr.String() + "}"
	}
	return "${" + n.Expr.String() + "}"
}

func (n *ValueNode) Children() []Node { return []Node{n.Expr} }

// VarNode declares a variable.  Without an initializer it names an input the
// caller is expected to supply.
type VarNode struct {
	Pos
	link
	Name string
	Type string // may be empty
	Init Node   // may be nil
}

func (n *VarNode) String() string {
	var decl = n.Name
	if n.Type != "" {
		decl = n.Type + " " + n.Name
	}
	if n.Init == nil {
		return "#var(" + decl + ")"
	}
	return "#set(" + decl + " = " + n.Init.String() + ")"
}

func (n *VarNode) Children() []Node {
	if n.Init == nil {
		return nil
	}
	return []Node{n.Init}
}

// IfNode executes its body when Cond is truthy.
type IfNode struct {
	Pos
	link
	body
	Cond Node
}

func (n *IfNode) String() string {
	return "#if(" + n.Cond.String() + ")" + n.bodyString() + endFor(n)
}

// ElseNode executes its body when the preceding If, Else or For did not.
// Cond is nil for a plain else.
type ElseNode struct {
	Pos
	link
	body
	Cond Node
	Prev Node // the IfNode, ElseNode or ForNode this else continues
}

func (n *ElseNode) String() string {
	var head = "#else"
	if n.Cond != nil {
		head = "#elseif(" + n.Cond.String() + ")"
	}
	return head + n.bodyString() + endFor(n)
}

// ForNode executes its body once per element of Iterable, with the element
// bound to Var.
type ForNode struct {
	Pos
	link
	body
	Var      string
	Type     string // may be empty
	Iterable Node
}

func (n *ForNode) String() string {
	var decl = n.Var
	if n.Type != "" {
		decl = n.Type + " " + n.Var
	}
	return "#for(" + decl + " : " + n.Iterable.String() + ")" + n.bodyString() + endFor(n)
}

// MacroNode declares a macro.  A text macro renders its body; a value macro
// evaluates Value and has no body.
type MacroNode struct {
	Pos
	link
	body
	Name   string
	Params []string
	Value  Node // non-nil for value macros
}

func (n *MacroNode) String() string {
	var sig = n.Name
	if len(n.Params) > 0 || n.Value != nil {
		sig += "(" + strings.Join(n.Params, ", ") + ")"
	}
	if n.Value != nil {
		return "#macro(" + sig + " = " + n.Value.String() + ")"
	}
	return "#macro(" + sig + ")" + n.bodyString() + "#end"
}

// BreakNode exits the nearest enclosing for loop, if Cond is nil or truthy.
type BreakNode struct {
	Pos
	link
	Cond Node
}

func (n *BreakNode) String() string {
	if n.Cond == nil {
		return "#break"
	}
	return "#break(" + n.Cond.String() + ")"
}

// endFor writes the #end of a block unless an else continues it.
func endFor(n Node) string {
	var p, ok = n.Parent().(ParentNode)
	if !ok {
		return "#end"
	}
	var siblings = p.Children()
	for i, s := range siblings {
		if s == n && i+1 < len(siblings) {
			if e, ok := siblings[i+1].(*ElseNode); ok && e.Prev == n {
				return ""
			}
		}
	}
	return "#end"
}

// Expressions ------------------------------------------------------------

// ConstantNode is a literal value.  BoxedNull marks an explicit null literal.
type ConstantNode struct {
	Pos
	link
	Value     data.Value
	BoxedNull bool
	Src       string // source text of the literal
}

func (n *ConstantNode) String() string {
	if n.Src != "" {
		return n.Src
	}
	return n.Value.String()
}

// VariableNode looks a name up in scope.
type VariableNode struct {
	Pos
	link
	Name string
}

func (n *VariableNode) String() string {
	return n.Name
}

// UnaryOpNode applies Op to Arg.
type UnaryOpNode struct {
	Pos
	link
	Op  Operator
	Arg Node
}

func (n *UnaryOpNode) String() string {
	return n.Op.String() + n.Arg.String()
}

func (n *UnaryOpNode) Children() []Node { return []Node{n.Arg} }

// BinaryOpNode applies Op to Left and Right.  For OpCall, Member names the
// invoked member, Right is the *ParametersNode of arguments (nil for property
// access) and Left is nil for a bare call of a macro or function.
type BinaryOpNode struct {
	Pos
	link
	Op     Operator
	Member string
	Left   Node
	Right  Node
}

func (n *BinaryOpNode) String() string {
	switch n.Op {
	case OpCall:
		var s = n.Member
		if n.Left != nil {
			s = n.Left.String() + "." + s
		}
		if n.Right != nil {
			s += n.Right.String()
		}
		return s
	case OpIndex:
		return n.Left.String() + "[" + n.Right.String() + "]"
	}
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

func (n *BinaryOpNode) Children() []Node {
	var children []Node
	for _, c := range []Node{n.Left, n.Right} {
		if c != nil {
			children = append(children, c)
		}
	}
	return children
}

// ParametersNode is the argument list of a call.
type ParametersNode struct {
	Pos
	link
	Args []Node
}

func (n *ParametersNode) String() string {
	return "(" + join(n.Args, ", ") + ")"
}

func (n *ParametersNode) Children() []Node { return n.Args }

// TernaryNode evaluates to Then if Cond is truthy, else Else.
type TernaryNode struct {
	Pos
	link
	Cond, Then, Else Node
}

func (n *TernaryNode) String() string {
	return "(" + n.Cond.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

func (n *TernaryNode) Children() []Node { return []Node{n.Cond, n.Then, n.Else} }

// ListLiteralNode constructs a list.
type ListLiteralNode struct {
	Pos
	link
	Items []Node
}

func (n *ListLiteralNode) String() string {
	return "[" + join(n.Items, ", ") + "]"
}

func (n *ListLiteralNode) Children() []Node { return n.Items }

// MapLiteralNode constructs a map.  Keys[i] is the key of Values[i].
type MapLiteralNode struct {
	Pos
	link
	Keys   []string
	Values []Node
}

func (n *MapLiteralNode) String() string {
	if len(n.Keys) == 0 {
		return "[:]"
	}
	var items = make([]string, len(n.Keys))
	for i := range n.Keys {
		items[i] = fmt.Sprintf("%q: %s", n.Keys[i], n.Values[i])
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func (n *MapLiteralNode) Children() []Node { return n.Values }

func join(nodes []Node, sep string) string {
	var items = make([]string, len(nodes))
	for i, n := range nodes {
		items[i] = n.String()
	}
	return strings.Join(items, sep)
}
