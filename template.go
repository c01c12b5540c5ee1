package hashtpl

import (
	"fmt"
	"io"

	"github.com/robfig/hashtpl/config"
	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/jsbackend"
	"github.com/robfig/hashtpl/render"
	"github.com/robfig/hashtpl/template"
)

// Template is a compiled template of an Engine.  It is immutable and may be
// rendered by any number of goroutines at once.
type Template struct {
	*template.Template
	engine  *Engine
	program *jsbackend.Program // nil unless the javascript backend is configured
	path    string
}

// Render converts vars with data.New and renders the template to w.
func (t *Template) Render(w io.Writer, vars map[string]interface{}) error {
	if vars == nil {
		return t.Execute(w, nil)
	}
	var v, err = data.Convert(vars)
	if err != nil {
		return err
	}
	m, ok := v.(data.Map)
	if !ok {
		return fmt.Errorf("template %s: data converted to %T, not a map", t.Name, v)
	}
	return t.Execute(w, m)
}

// Execute renders the template to w.  The template sees vars, then the
// engine's resolvers for names vars does not define.
//
// Output written before an error is left in w.
func (t *Template) Execute(w io.Writer, vars data.Map) error {
	var ctx = render.NewContext(render.Overlay(render.MapVars(vars)), t.engine.resolvers...)
	if t.program != nil {
		return t.program.Execute(t.engine.env, ctx, w)
	}
	return render.Execute(t.engine.env, t.Template, ctx, w)
}

// Backend names the backend that renders the template.
func (t *Template) Backend() string {
	if t.program != nil {
		return config.BackendJavaScript
	}
	return config.BackendInterpreter
}
