package hashtpl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/parse"
	"github.com/robfig/hashtpl/render"
)

// ParseGlobals parses the given input, expecting the form:
//  <global_name> = <expression>
//
// Furthermore:
//  - Empty lines and lines beginning with '##' or '//' are ignored.
//  - <expression> is evaluated once, with no variables in scope, so it is
//    normally a literal: null, boolean, number, string, list, map or range.
func ParseGlobals(input io.Reader) (data.Map, error) {
	var globals = make(data.Map)
	var scanner = bufio.NewScanner(input)
	var lineno int
	for scanner.Scan() {
		lineno++
		var line = strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "##") || strings.HasPrefix(line, "//") {
			continue
		}
		var eq = strings.Index(line, "=")
		if eq == -1 {
			return nil, fmt.Errorf("line %d: no equals: %q", lineno, line)
		}
		var (
			name = strings.TrimSpace(line[:eq])
			expr = strings.TrimSpace(line[eq+1:])
		)
		if _, ok := globals[name]; ok {
			return nil, fmt.Errorf("line %d: global %s is already defined", lineno, name)
		}
		var node, err = parse.Expr(expr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		value, err := render.Eval(nil, node, render.NewContext(nil))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		globals[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return globals, nil
}
