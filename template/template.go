// Package template holds parsed templates along with the context they were
// loaded in.
package template

import (
	"sort"
	"time"

	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/errortypes"
	"github.com/robfig/hashtpl/parse"
)

// Template is a template's parse tree, including the source it was parsed
// from.  It is immutable and may be rendered concurrently.
type Template struct {
	Name         string
	Locale       language.Tag
	Encoding     string
	Source       string
	LastModified time.Time
	Root         *ast.RootNode
}

// Var is an input declared with #var.
type Var struct {
	Name string
	Type string
	Kind data.Kind // KindUndefined if Type does not name a known kind
}

// Parse parses source into a Template.
func Parse(name, source string, opts parse.Options) (*Template, error) {
	var root, err = parse.Parse(name, source, 0, opts)
	if err != nil {
		return nil, err
	}
	return &Template{Name: name, Source: source, Root: root}, nil
}

// Macro returns the macro declared with the given name.
func (t *Template) Macro(name string) (*ast.MacroNode, bool) {
	m, ok := t.Root.Macros[name]
	return m, ok
}

// Macros returns the names of the declared macros, sorted.
func (t *Template) Macros() []string {
	var names = make([]string, 0, len(t.Root.Macros))
	for name := range t.Root.Macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Vars returns the inputs declared with #var, in order.
func (t *Template) Vars() []Var {
	var vars []Var
	for _, v := range t.Root.Vars {
		var k, ok = data.KindNamed(v.Type)
		if !ok {
			k = data.KindUndefined
		}
		vars = append(vars, Var{v.Name, v.Type, k})
	}
	return vars
}

// Position returns the location of the node within the template source.
func (t *Template) Position(node ast.Node) errortypes.Position {
	return errortypes.Locate(t.Name, t.Source, int(node.Position()))
}
