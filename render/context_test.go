package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/parse"
	"github.com/robfig/hashtpl/resolver"
	"github.com/robfig/hashtpl/template"
)

func TestContextChain(t *testing.T) {
	var root = NewContext(MapVars(data.Map{"a": data.Int(1)}), resolver.Map{"r": data.Int(2)})
	if root.Level() != 0 || root.Pop() != nil {
		t.Fatalf("bad root: level %d", root.Level())
	}

	var child = root.Push(nil)
	if child.Level() != 1 || child.Pop() != root {
		t.Errorf("bad child: level %d", child.Level())
	}
	if _, ok := child.Get("a"); ok {
		t.Errorf("plain child frame should not see its parent's bindings")
	}
	if _, ok := child.Get("r"); ok {
		t.Errorf("only the root frame consults resolvers")
	}

	var overlay = root.Push(Overlay(root))
	overlay.Put("a", data.Int(10))
	if v, _ := overlay.Get("a"); !v.Equals(data.Int(10)) {
		t.Errorf("overlay: got %v", v)
	}
	if v, _ := overlay.Get("r"); !v.Equals(data.Int(2)) {
		t.Errorf("overlay resolver: got %v", v)
	}
	if v, _ := root.Get("a"); !v.Equals(data.Int(1)) {
		t.Errorf("overlay put leaked into parent: %v", v)
	}
}

func TestContextInUse(t *testing.T) {
	var inner, err = template.Parse("inner", "x", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var ctx *Context
	var reentrant = Func{func([]data.Value) (data.Value, error) {
		return nil, Execute(nil, inner, ctx, new(bytes.Buffer))
	}, []int{0}}
	ctx = NewContext(MapVars(data.Map{"f": reentrant}))

	outer, err := template.Parse("outer", "${f()}", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}
	err = Execute(nil, outer, ctx, new(bytes.Buffer))
	if !errors.Is(err, ErrContextInUse) {
		t.Errorf("expected ErrContextInUse, got %v", err)
	}

	// Released after the render, even a failed one.
	var buf bytes.Buffer
	if err = Execute(nil, inner, ctx, &buf); err != nil || buf.String() != "x" {
		t.Errorf("got %q, %v", buf.String(), err)
	}
}
