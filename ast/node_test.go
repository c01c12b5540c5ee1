package ast

import (
	"errors"
	"testing"

	"github.com/robfig/hashtpl/data"
)

func TestAdoptRejectsSecondParent(t *testing.T) {
	var (
		x     = &VariableNode{Pos: 3, Name: "x"}
		first = &UnaryOpNode{Pos: 2, Op: OpNeg, Arg: x}
		other = &UnaryOpNode{Pos: 8, Op: OpNot, Arg: x}
	)
	if err := Adopt(first, x); err != nil {
		t.Fatalf("first adopt: %v", err)
	}
	var err = Adopt(other, x)
	var re *ReparentError
	if !errors.As(err, &re) {
		t.Fatalf("expected a ReparentError, got %v", err)
	}
	if re.Node.Position() != 3 {
		t.Errorf("expected error at offset 3, got %d", re.Node.Position())
	}
	if x.Parent() != first {
		t.Errorf("parent changed to %v", x.Parent())
	}
}

func TestRootCannotBeAdopted(t *testing.T) {
	var root = &RootNode{}
	if err := Append(root, &RootNode{}); err == nil {
		t.Errorf("expected an error appending a root")
	}
}

func TestAppendAndDepth(t *testing.T) {
	var (
		root  = &RootNode{}
		outer = &ForNode{Pos: 0, Var: "x", Iterable: &VariableNode{Name: "xs"}}
		inner = &IfNode{Pos: 10, Cond: &VariableNode{Name: "x"}}
		text  = &TextNode{Pos: 15, Text: "a"}
	)
	for _, step := range []struct {
		parent BlockNode
		child  Node
	}{{root, outer}, {outer, inner}, {inner, text}} {
		if err := Append(step.parent, step.child); err != nil {
			t.Fatal(err)
		}
	}
	if d := Depth(root); d != 2 {
		t.Errorf("Depth => %d, expected 2", d)
	}
	if text.Parent() != inner || inner.Parent() != outer || outer.Parent() != root {
		t.Errorf("unexpected parent links")
	}
	if err := Append(outer, text); err == nil {
		t.Errorf("expected re-appending a child to fail")
	}
	if s := root.String(); s != "#for(x : xs)#if(x)a#end#end" {
		t.Errorf("String => %q", s)
	}
}

func TestElseString(t *testing.T) {
	var (
		root  = &RootNode{}
		cond  = &IfNode{Cond: &ConstantNode{Value: data.Bool(true), Src: "true"}}
		other = &ElseNode{Prev: cond}
	)
	Append(root, cond)
	Append(cond, &TextNode{Text: "a"})
	Append(root, other)
	Append(other, &TextNode{Text: "b"})
	if s := root.String(); s != "#if(true)a#elseb#end" {
		t.Errorf("String => %q", s)
	}
}

func TestOperators(t *testing.T) {
	for _, sym := range []string{"*", "/", "%", "+", "-", "<<", ">>", ">>>", "..", "<", "<=", ">", ">=", "==", "!=", "&", "^", "|", "&&", "||"} {
		op, ok := BinaryOperator(sym)
		if !ok || op.String() != sym || op.IsUnary() {
			t.Errorf("BinaryOperator(%q) => %v, %v", sym, op, ok)
		}
	}
	for _, sym := range []string{"!", "-", "+", "~"} {
		op, ok := UnaryOperator(sym)
		if !ok || op.String() != sym || !op.IsUnary() {
			t.Errorf("UnaryOperator(%q) => %v, %v", sym, op, ok)
		}
	}
	if _, ok := BinaryOperator("**"); ok {
		t.Errorf("expected ** to be unknown")
	}
}
