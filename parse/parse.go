// Package parse converts template text into its in-memory representation (AST).
package parse

import (
	"runtime"
	"strings"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/errortypes"
)

// Keywords names the block directives.  A template processor may rename any
// of them; empty fields take the default.
type Keywords struct {
	If, ElseIf, Else, End, For, Break, Set, Var, Macro string
}

// DefaultKeywords are the directive names used when none are configured.
var DefaultKeywords = Keywords{
	If:     "if",
	ElseIf: "elseif",
	Else:   "else",
	End:    "end",
	For:    "for",
	Break:  "break",
	Set:    "set",
	Var:    "var",
	Macro:  "macro",
}

func (k Keywords) withDefaults() Keywords {
	var fill = func(s *string, def string) {
		if *s == "" {
			*s = def
		}
	}
	fill(&k.If, DefaultKeywords.If)
	fill(&k.ElseIf, DefaultKeywords.ElseIf)
	fill(&k.Else, DefaultKeywords.Else)
	fill(&k.End, DefaultKeywords.End)
	fill(&k.For, DefaultKeywords.For)
	fill(&k.Break, DefaultKeywords.Break)
	fill(&k.Set, DefaultKeywords.Set)
	fill(&k.Var, DefaultKeywords.Var)
	fill(&k.Macro, DefaultKeywords.Macro)
	return k
}

func (k Keywords) has(name string) bool {
	switch name {
	case k.If, k.ElseIf, k.Else, k.End, k.For, k.Break, k.Set, k.Var, k.Macro:
		return true
	}
	return false
}

// Options configure the parser.
type Options struct {
	Keywords Keywords
}

// source locates parse errors within the template text.
type source struct {
	name string
	text string // the full template text
	base int    // offset of text within the enclosing input
}

// errorf aborts parsing with an error at the given offset within text.
func (s *source) errorf(offset int, format string, args ...interface{}) {
	var err = errortypes.NewParseError(s.name, s.text, offset, format, args...)
	err.Pos.Offset += s.base
	panic(err)
}

func (s *source) adopt(parent ast.Node, children ...ast.Node) {
	if err := ast.Adopt(parent, children...); err != nil {
		s.errorf(int(err.(*ast.ReparentError).Node.Position())-s.base, "%v", err)
	}
}

// recoverParse turns a parse panic into an error return.
func recoverParse(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	*errp = e.(error)
}

// parser builds the tree of a template from its scanned tokens.
type parser struct {
	src     *source
	kw      Keywords
	root    *ast.RootNode
	stack   []ast.BlockNode // open blocks; stack[0] is the root
	pending strings.Builder // text not yet added to the tree
	textAt  int             // offset of the pending text
}

// Parse parses the given template text.  Node positions are offsets within
// text plus baseOffset.
func Parse(name, text string, baseOffset int, opts Options) (root *ast.RootNode, err error) {
	var p = &parser{
		src:  &source{name: name, text: text, base: baseOffset},
		kw:   opts.Keywords.withDefaults(),
		root: &ast.RootNode{Name: name, Macros: make(map[string]*ast.MacroNode)},
	}
	defer recoverParse(&err)
	p.stack = []ast.BlockNode{p.root}

	var tokens, scanErr = Scan(text)
	if scanErr != nil {
		var se = scanErr.(*ScanError)
		p.src.errorf(se.Offset, "%s", se.Msg)
	}
	for _, tok := range tokens {
		p.token(tok)
	}
	p.flush()
	if len(p.stack) > 1 {
		var open = p.top()
		p.src.errorf(p.local(open.Position()), "unclosed #%s", p.blockName(open))
	}
	return p.root, nil
}

func (p *parser) token(tok Token) {
	switch tok.Kind {
	case TokenText:
		p.addText(tok.Offset, tok.Text)
	case TokenEscape:
		p.addText(tok.Offset, tok.Text[1:])
	case TokenLiteral:
		p.addText(tok.Offset+3, tok.Text[3:len(tok.Text)-3])
	case TokenComment:
	case TokenInterpolation:
		p.interpolation(tok)
	case TokenDirective:
		p.directive(tok)
	}
}

// interpolation handles ${expr}, $!{expr} and $name.
func (p *parser) interpolation(tok Token) {
	var s, off, raw = tok.Text, tok.Offset, false
	switch {
	case strings.HasPrefix(s, "$!{"):
		s, off, raw = s[3:len(s)-1], off+3, true
	case strings.HasPrefix(s, "${"):
		s, off = s[2:len(s)-1], off+2
	default:
		s, off = s[1:], off+1
	}
	var e = newExprParser(p.src, s, off)
	var expr = e.parseExpr(0)
	e.expect(itemEOF, "interpolation")
	var n = &ast.ValueNode{Pos: p.pos(tok.Offset), Expr: expr, NoFilter: raw}
	p.src.adopt(n, expr)
	p.append(n)
}

// directive handles #name and #name(args).
func (p *parser) directive(tok Token) {
	var name, args, hasArgs, argsOff = tok.Text[1:], "", false, 0
	if i := strings.IndexByte(name, '('); i >= 0 {
		args, hasArgs, argsOff = name[i+1:len(name)-1], true, tok.Offset+1+i+1
		name = name[:i]
	}
	var e = newExprParser(p.src, args, argsOff)
	var context = "#" + name

	switch name {
	case p.kw.If:
		p.requireArgs(tok, name, hasArgs)
		var cond = e.parseExpr(0)
		e.expect(itemEOF, context)
		var n = &ast.IfNode{Pos: p.pos(tok.Offset), Cond: cond}
		p.src.adopt(n, cond)
		p.open(n)

	case p.kw.ElseIf:
		p.requireArgs(tok, name, hasArgs)
		var cond = e.parseExpr(0)
		e.expect(itemEOF, context)
		p.openElse(tok, name, cond)

	case p.kw.Else:
		var cond ast.Node
		if hasArgs {
			cond = e.parseExpr(0)
			e.expect(itemEOF, context)
		}
		p.openElse(tok, name, cond)

	case p.kw.End:
		if hasArgs {
			p.src.errorf(tok.Offset, "#%s takes no arguments", name)
		}
		p.flush()
		if len(p.stack) == 1 {
			p.src.errorf(tok.Offset, "unexpected #%s", name)
		}
		p.stack = p.stack[:len(p.stack)-1]

	case p.kw.For:
		p.requireArgs(tok, name, hasArgs)
		var d, iterable = e.parseForClause(context)
		var n = &ast.ForNode{Pos: p.pos(tok.Offset), Var: d.name, Type: d.typ, Iterable: iterable}
		p.src.adopt(n, iterable)
		p.open(n)

	case p.kw.Break:
		if !p.inLoop() {
			p.src.errorf(tok.Offset, "#%s outside of #%s", name, p.kw.For)
		}
		var cond ast.Node
		if hasArgs {
			cond = e.parseExpr(0)
			e.expect(itemEOF, context)
		}
		var n = &ast.BreakNode{Pos: p.pos(tok.Offset), Cond: cond}
		p.src.adopt(n, cond)
		p.append(n)

	case p.kw.Set:
		p.requireArgs(tok, name, hasArgs)
		for _, d := range e.parseDecls(true, context) {
			var n = &ast.VarNode{Pos: d.pos, Name: d.name, Type: d.typ, Init: d.init}
			p.src.adopt(n, d.init)
			p.append(n)
		}

	case p.kw.Var:
		p.requireArgs(tok, name, hasArgs)
		for _, d := range e.parseDecls(false, context) {
			var n = &ast.VarNode{Pos: d.pos, Name: d.name, Type: d.typ}
			p.append(n)
			p.root.Vars = append(p.root.Vars, n)
		}

	case p.kw.Macro:
		p.requireArgs(tok, name, hasArgs)
		var id, params, value = e.parseMacroSignature(context)
		if p.kw.has(id.val) {
			e.errorf(id, "macro name %s is a directive", id.val)
		}
		if _, ok := p.root.Macros[id.val]; ok {
			e.errorf(id, "macro %s already defined", id.val)
		}
		var n = &ast.MacroNode{Pos: p.pos(tok.Offset), Name: id.val, Params: params, Value: value}
		p.root.Macros[id.val] = n
		p.src.adopt(n, value)
		if value != nil {
			p.append(n)
		} else {
			p.open(n)
		}

	default:
		if _, ok := p.root.Macros[name]; !ok {
			p.addText(tok.Offset, tok.Text)
			return
		}
		var params = e.parseArgList(p.pos(tok.Offset))
		var call = &ast.BinaryOpNode{Pos: p.pos(tok.Offset), Op: ast.OpCall, Member: name, Right: params}
		p.src.adopt(call, params)
		var n = &ast.ValueNode{Pos: p.pos(tok.Offset), Expr: call, NoFilter: true}
		p.src.adopt(n, call)
		p.append(n)
	}
}

// openElse replaces the innermost block with an else branch continuing it.
func (p *parser) openElse(tok Token, name string, cond ast.Node) {
	p.flush()
	var prev = p.top()
	switch prev := prev.(type) {
	case *ast.IfNode, *ast.ForNode:
	case *ast.ElseNode:
		if prev.Cond == nil {
			p.src.errorf(tok.Offset, "#%s after #%s", name, p.kw.Else)
		}
	default:
		p.src.errorf(tok.Offset, "#%s without #%s or #%s", p.kw.Else, p.kw.If, p.kw.For)
	}
	p.stack = p.stack[:len(p.stack)-1]
	var n = &ast.ElseNode{Pos: p.pos(tok.Offset), Cond: cond, Prev: prev}
	p.src.adopt(n, cond)
	p.open(n)
}

func (p *parser) requireArgs(tok Token, name string, hasArgs bool) {
	if !hasArgs {
		p.src.errorf(tok.Offset, "#%s requires arguments", name)
	}
}

// inLoop reports whether the innermost enclosing loop is within the current
// macro body.
func (p *parser) inLoop() bool {
	for i := len(p.stack) - 1; i >= 0; i-- {
		switch p.stack[i].(type) {
		case *ast.ForNode:
			return true
		case *ast.MacroNode:
			return false
		}
	}
	return false
}

func (p *parser) blockName(n ast.Node) string {
	switch n.(type) {
	case *ast.IfNode:
		return p.kw.If
	case *ast.ElseNode:
		return p.kw.Else
	case *ast.ForNode:
		return p.kw.For
	case *ast.MacroNode:
		return p.kw.Macro
	}
	return "block"
}

func (p *parser) addText(offset int, text string) {
	if p.pending.Len() == 0 {
		p.textAt = offset
	}
	p.pending.WriteString(text)
}

// flush adds any pending text to the innermost block.
func (p *parser) flush() {
	if p.pending.Len() == 0 {
		return
	}
	var n = &ast.TextNode{Pos: p.pos(p.textAt), Text: p.pending.String()}
	p.pending.Reset()
	p.append(n)
}

func (p *parser) append(n ast.Node) {
	p.flush()
	if err := ast.Append(p.top(), n); err != nil {
		p.src.errorf(p.local(n.Position()), "%v", err)
	}
}

// open appends the block and makes it the innermost one.
func (p *parser) open(n ast.BlockNode) {
	p.append(n)
	p.stack = append(p.stack, n)
}

func (p *parser) top() ast.BlockNode {
	return p.stack[len(p.stack)-1]
}

func (p *parser) pos(offset int) ast.Pos {
	return ast.Pos(p.src.base + offset)
}

func (p *parser) local(pos ast.Pos) int {
	return int(pos) - p.src.base
}
