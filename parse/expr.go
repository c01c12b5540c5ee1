package parse

import (
	"strconv"
	"strings"

	"github.com/robfig/hashtpl/ast"
	"github.com/robfig/hashtpl/data"
)

// precedence of binary operators; higher binds tighter.  Unary operators and
// postfix member access bind tighter than all of them.
var precedence = map[ast.Operator]int{
	ast.OpMul:    11,
	ast.OpDiv:    11,
	ast.OpMod:    11,
	ast.OpAdd:    10,
	ast.OpSub:    10,
	ast.OpShl:    9,
	ast.OpShr:    9,
	ast.OpUshr:   9,
	ast.OpRange:  8,
	ast.OpLt:     7,
	ast.OpLe:     7,
	ast.OpGt:     7,
	ast.OpGe:     7,
	ast.OpEq:     6,
	ast.OpNe:     6,
	ast.OpBitAnd: 5,
	ast.OpBitXor: 4,
	ast.OpBitOr:  3,
	ast.OpAnd:    2,
	ast.OpOr:     1,
}

// exprParser parses the expression language found inside interpolations and
// directive arguments.
type exprParser struct {
	src   *source
	off   int // offset of the expression text within the template text
	items []item
	i     int // index of the next item
}

func newExprParser(src *source, input string, off int) *exprParser {
	return &exprParser{src: src, off: off, items: lexExpr(input)}
}

// Expr parses a standalone expression.
func Expr(str string) (node ast.Node, err error) {
	defer recoverParse(&err)
	var e = newExprParser(&source{name: "expr", text: str}, str, 0)
	node = e.parseExpr(0)
	e.expect(itemEOF, "expression")
	return node, nil
}

// parseExpr parses a sequence of binary operations whose operators bind at
// least as tightly as prec, followed by an optional ternary at the top level.
func (e *exprParser) parseExpr(prec int) ast.Node {
	var n = e.parseUnary()
	for {
		var tok = e.next()
		var op, ok = binaryOp(tok)
		if !ok || precedence[op] < prec {
			e.backup()
			break
		}
		var right = e.parseExpr(precedence[op] + 1)
		n = e.adopt(&ast.BinaryOpNode{Pos: e.pos(tok), Op: op, Left: n, Right: right}, n, right)
	}
	if prec == 0 && e.peek().typ == itemQuestion {
		var tok = e.next()
		var then = e.parseExpr(0)
		e.expect(itemColon, "ternary")
		var els = e.parseExpr(0)
		n = e.adopt(&ast.TernaryNode{Pos: e.pos(tok), Cond: n, Then: then, Else: els}, n, then, els)
	}
	return n
}

func binaryOp(tok item) (ast.Operator, bool) {
	if tok.typ != itemOp {
		return ast.OpInvalid, false
	}
	return ast.BinaryOperator(tok.val)
}

func (e *exprParser) parseUnary() ast.Node {
	var tok = e.next()
	if tok.typ == itemOp {
		if op, ok := ast.UnaryOperator(tok.val); ok {
			var arg = e.parseUnary()
			return e.adopt(&ast.UnaryOpNode{Pos: e.pos(tok), Op: op, Arg: arg}, arg)
		}
	}
	e.backup()
	return e.parsePostfix(e.parsePrimary())
}

func (e *exprParser) parsePrimary() ast.Node {
	switch tok := e.next(); tok.typ {
	case itemLeftParen:
		var n = e.parseExpr(0)
		e.expect(itemRightParen, "parenthesized expression")
		return n
	case itemInteger:
		return e.newInteger(tok)
	case itemFloat:
		return e.newFloat(tok)
	case itemString:
		var s, err = unquoteString(tok.val)
		if err != nil {
			e.errorf(tok, "%v", err)
		}
		return &ast.ConstantNode{Pos: e.pos(tok), Value: data.String(s), Src: tok.val}
	case itemBool:
		return &ast.ConstantNode{Pos: e.pos(tok), Value: data.Bool(tok.val == "true"), Src: tok.val}
	case itemNull:
		return &ast.ConstantNode{Pos: e.pos(tok), Value: data.Null{}, BoxedNull: true, Src: tok.val}
	case itemLeftBracket:
		return e.parseListOrMap(tok)
	case itemIdent:
		if e.peek().typ == itemLeftParen {
			var params = e.parseParams()
			return e.adopt(&ast.BinaryOpNode{Pos: e.pos(tok), Op: ast.OpCall, Member: tok.val, Right: params}, params)
		}
		return &ast.VariableNode{Pos: e.pos(tok), Name: tok.val}
	default:
		e.unexpected(tok, "expression")
	}
	return nil
}

// parsePostfix parses any member accesses, calls and indexes applied to n.
func (e *exprParser) parsePostfix(n ast.Node) ast.Node {
	for {
		switch tok := e.next(); tok.typ {
		case itemDot:
			var name = e.expect(itemIdent, "member access")
			var call = &ast.BinaryOpNode{Pos: e.pos(name), Op: ast.OpCall, Member: name.val, Left: n}
			if e.peek().typ == itemLeftParen {
				call.Right = e.parseParams()
			}
			n = e.adopt(call, call.Left, call.Right)
		case itemLeftBracket:
			var index = e.parseExpr(0)
			e.expect(itemRightBracket, "index")
			n = e.adopt(&ast.BinaryOpNode{Pos: e.pos(tok), Op: ast.OpIndex, Left: n, Right: index}, n, index)
		default:
			e.backup()
			return n
		}
	}
}

// parseParams parses a parenthesized argument list.
func (e *exprParser) parseParams() *ast.ParametersNode {
	var open = e.expect(itemLeftParen, "arguments")
	var params = &ast.ParametersNode{Pos: e.pos(open)}
	if e.peek().typ == itemRightParen {
		e.next()
		return params
	}
	for {
		var arg = e.parseExpr(0)
		e.adopt(params, arg)
		params.Args = append(params.Args, arg)
		switch tok := e.next(); tok.typ {
		case itemComma:
			continue
		case itemRightParen:
			return params
		default:
			e.unexpected(tok, "arguments")
		}
	}
}

// parseArgList parses a bare comma separated list of expressions, as found in
// the arguments of a directive-form macro call.
func (e *exprParser) parseArgList(pos ast.Pos) *ast.ParametersNode {
	var params = &ast.ParametersNode{Pos: pos}
	if e.peek().typ == itemEOF {
		return params
	}
	for {
		var arg = e.parseExpr(0)
		e.adopt(params, arg)
		params.Args = append(params.Args, arg)
		if e.peek().typ != itemComma {
			e.expect(itemEOF, "arguments")
			return params
		}
		e.next()
	}
}

// parseListOrMap parses [a, b], [k: v] or the empty forms [] and [:].
func (e *exprParser) parseListOrMap(open item) ast.Node {
	switch e.peek().typ {
	case itemRightBracket:
		e.next()
		return &ast.ListLiteralNode{Pos: e.pos(open)}
	case itemColon:
		e.next()
		e.expect(itemRightBracket, "map literal")
		return &ast.MapLiteralNode{Pos: e.pos(open)}
	}

	var first = e.parseExpr(0)
	if e.peek().typ == itemColon {
		return e.parseMapLiteral(open, first)
	}
	var list = &ast.ListLiteralNode{Pos: e.pos(open)}
	var item = first
	for {
		e.adopt(list, item)
		list.Items = append(list.Items, item)
		switch tok := e.next(); tok.typ {
		case itemComma:
			item = e.parseExpr(0)
		case itemRightBracket:
			return list
		default:
			e.unexpected(tok, "list literal")
		}
	}
}

func (e *exprParser) parseMapLiteral(open item, firstKey ast.Node) ast.Node {
	var m = &ast.MapLiteralNode{Pos: e.pos(open)}
	var key = firstKey
	for {
		e.expect(itemColon, "map literal")
		var value = e.parseExpr(0)
		e.adopt(m, value)
		m.Keys = append(m.Keys, e.mapKey(key))
		m.Values = append(m.Values, value)
		switch tok := e.next(); tok.typ {
		case itemComma:
			key = e.parseExpr(0)
		case itemRightBracket:
			return m
		default:
			e.unexpected(tok, "map literal")
		}
	}
}

func (e *exprParser) mapKey(key ast.Node) string {
	switch key := key.(type) {
	case *ast.VariableNode:
		return key.Name
	case *ast.ConstantNode:
		if s, ok := key.Value.(data.String); ok {
			return string(s)
		}
	}
	e.src.errorf(int(key.Position())-e.src.base, "map keys must be strings or names, found %v", key)
	return ""
}

func (e *exprParser) newInteger(tok item) ast.Node {
	var s, long = strings.TrimRight(tok.val, "lL"), strings.ContainsAny(tok.val, "lL")
	var n int64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		var u uint64
		u, err = strconv.ParseUint(s[2:], 16, 64)
		n = int64(u)
	} else {
		n, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		e.errorf(tok, "invalid integer %s: %v", tok.val, err)
	}
	var value data.Value = data.Long(n)
	if !long && int64(int32(n)) == n {
		value = data.Int(n)
	}
	return &ast.ConstantNode{Pos: e.pos(tok), Value: value, Src: tok.val}
}

func (e *exprParser) newFloat(tok item) ast.Node {
	var s = strings.TrimRight(tok.val, "fFdD")
	var f, err = strconv.ParseFloat(s, 64)
	if err != nil {
		e.errorf(tok, "invalid number %s: %v", tok.val, err)
	}
	var value data.Value = data.Double(f)
	if strings.ContainsAny(tok.val, "fF") {
		value = data.Float(f)
	}
	return &ast.ConstantNode{Pos: e.pos(tok), Value: value, Src: tok.val}
}

// Declarations -----------------------------------------------------------------

// decl is a parsed `[Type] name [= expr]` clause.
type decl struct {
	pos  ast.Pos
	typ  string
	name string
	init ast.Node
}

// parseDecl parses an optionally typed name.  Dotted type names are allowed.
func (e *exprParser) parseDecl(context string) decl {
	var first = e.expect(itemIdent, context)
	var words = []string{first.val}
	for e.peek().typ == itemDot {
		e.next()
		words = append(words, e.expect(itemIdent, context).val)
	}
	if e.peek().typ == itemIdent {
		var name = e.next()
		return decl{pos: e.pos(name), typ: strings.Join(words, "."), name: name.val}
	}
	if len(words) > 1 {
		e.errorf(first, "missing name after type %s in %s", strings.Join(words, "."), context)
	}
	return decl{pos: e.pos(first), name: first.val}
}

// parseDecls parses a comma separated list of declarations, each with an
// initializer if withInit is set, or without one otherwise.
func (e *exprParser) parseDecls(withInit bool, context string) []decl {
	var decls []decl
	for {
		var d = e.parseDecl(context)
		if withInit {
			e.expect(itemEquals, context)
			d.init = e.parseExpr(0)
		}
		decls = append(decls, d)
		switch tok := e.next(); tok.typ {
		case itemComma:
			continue
		case itemEOF:
			return decls
		default:
			e.unexpected(tok, context)
		}
	}
}

// parseForClause parses `[Type] name : expr`.
func (e *exprParser) parseForClause(context string) (decl, ast.Node) {
	var d = e.parseDecl(context)
	e.expect(itemColon, context)
	var iterable = e.parseExpr(0)
	e.expect(itemEOF, context)
	return d, iterable
}

// parseMacroSignature parses `name`, `name(p1, p2)` or `name(p1) = expr`.
func (e *exprParser) parseMacroSignature(context string) (name item, params []string, value ast.Node) {
	name = e.expect(itemIdent, context)
	if e.peek().typ == itemLeftParen {
		e.next()
		if e.peek().typ == itemRightParen {
			e.next()
		} else {
			for {
				params = append(params, e.expect(itemIdent, context).val)
				if tok := e.next(); tok.typ == itemRightParen {
					break
				} else if tok.typ != itemComma {
					e.unexpected(tok, context)
				}
			}
		}
	}
	if e.peek().typ == itemEquals {
		e.next()
		value = e.parseExpr(0)
	}
	e.expect(itemEOF, context)
	return name, params, value
}

// Helpers ------------------------------------------------------------------------

// next returns the next item, failing on a lexical error.
func (e *exprParser) next() item {
	var it = e.items[len(e.items)-1]
	if e.i < len(e.items) {
		it = e.items[e.i]
	}
	e.i++
	if it.typ == itemError {
		e.errorf(it, "%s", it.val)
	}
	return it
}

// backup backs the input stream up one item.
func (e *exprParser) backup() {
	e.i--
}

// peek returns but does not consume the next item.
func (e *exprParser) peek() item {
	var it = e.next()
	e.backup()
	return it
}

// expect consumes the next item and guarantees it has the required type.
func (e *exprParser) expect(expected itemType, context string) item {
	var token = e.next()
	if token.typ != expected {
		e.unexpected(token, context)
	}
	return token
}

// unexpected complains about the token and terminates processing.
func (e *exprParser) unexpected(token item, context string) {
	if token.typ == itemEOF {
		e.errorf(token, "unexpected end of %s", context)
	}
	e.errorf(token, "unexpected %v in %s", token, context)
}

func (e *exprParser) errorf(tok item, format string, args ...interface{}) {
	e.src.errorf(e.off+tok.pos, format, args...)
}

// pos returns the absolute position of tok.
func (e *exprParser) pos(tok item) ast.Pos {
	return ast.Pos(e.src.base + e.off + tok.pos)
}

// adopt links children to parent and returns parent.
func (e *exprParser) adopt(parent ast.Node, children ...ast.Node) ast.Node {
	e.src.adopt(parent, children...)
	return parent
}
