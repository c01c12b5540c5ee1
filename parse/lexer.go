package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// item is a token of an expression.
type item struct {
	typ itemType
	pos int    // byte offset within the expression
	val string // source text, or the message of an itemError
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return i.val
	}
	if len(i.val) > 10 {
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

type itemType int

const (
	itemInvalid itemType = iota
	itemEOF
	itemError // val is the message

	itemNull    // null
	itemBool    // true, false
	itemInteger // 42, 0xff, 42L
	itemFloat   // 1.0, 1e3, 1.5f
	itemString  // 'a', "a" or `a`
	itemIdent

	itemOp // one of operators
	itemDot
	itemComma
	itemColon
	itemQuestion
	itemEquals
	itemLeftParen
	itemRightParen
	itemLeftBracket
	itemRightBracket
)

// operators are matched longest first.
var operators = []string{
	">>>",
	"<<", ">>", "..", "<=", ">=", "==", "!=", "&&", "||",
	"*", "/", "%", "+", "-", "<", ">", "&", "^", "|", "!", "~",
}

var punctuation = map[rune]itemType{
	'.': itemDot,
	',': itemComma,
	':': itemColon,
	'?': itemQuestion,
	'=': itemEquals,
	'(': itemLeftParen,
	')': itemRightParen,
	'[': itemLeftBracket,
	']': itemRightBracket,
}

const (
	decDigits = "0123456789"
	hexDigits = decDigits + "abcdefABCDEF"
)

type lexer struct {
	input string
	pos   int
	items []item
}

// lexExpr splits an expression into items.  The last item is itemEOF, or
// itemError if the expression could not be scanned.
func lexExpr(input string) []item {
	var l = lexer{input: input}
	for l.lexItem() {
	}
	return l.items
}

// lexItem scans the next item and reports whether there may be more.
func (l *lexer) lexItem() bool {
	l.pos += len(l.input[l.pos:]) - len(strings.TrimLeft(l.input[l.pos:], " \t\r\n"))
	var start = l.pos
	if start == len(l.input) {
		l.add(itemEOF, start)
		return false
	}

	var r, width = utf8.DecodeRuneInString(l.input[start:])
	switch {
	case isDigit(r):
		var typ, ok = l.number()
		if !ok {
			return l.fail(start, "bad number syntax: %q", l.input[start:l.pos])
		}
		l.add(typ, start)
	case r == '\'' || r == '"' || r == '`':
		if !l.quoted(byte(r)) {
			return l.fail(start, "unexpected eof while scanning string")
		}
		l.add(itemString, start)
	case isIdentStart(r):
		l.pos += width
		l.skipWhile(isIdentRune)
		l.add(keyword(l.input[start:l.pos]), start)
	default:
		for _, op := range operators {
			if strings.HasPrefix(l.input[start:], op) {
				l.pos += len(op)
				l.add(itemOp, start)
				return true
			}
		}
		var typ, ok = punctuation[r]
		if !ok {
			return l.fail(start, "unrecognized character in expression: %#U", r)
		}
		l.pos += width
		l.add(typ, start)
	}
	return true
}

func (l *lexer) add(typ itemType, start int) {
	l.items = append(l.items, item{typ, start, l.input[start:l.pos]})
}

func (l *lexer) fail(pos int, format string, args ...interface{}) bool {
	l.items = append(l.items, item{itemError, pos, fmt.Sprintf(format, args...)})
	return false
}

// number scans a numeric literal at the current position.  A dot starts a
// fraction only when a digit follows it, so that 1..5 is a range.
func (l *lexer) number() (typ itemType, ok bool) {
	typ = itemInteger
	if l.skipPrefix("0x") || l.skipPrefix("0X") {
		if !l.skipAny(hexDigits) {
			return typ, false
		}
		l.skipOne("lL")
	} else {
		if !l.skipAny(decDigits) {
			return typ, false
		}
		if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(rune(l.input[l.pos+1])) {
			l.pos++
			l.skipAny(decDigits)
			typ = itemFloat
		}
		if l.skipOne("eE") {
			l.skipOne("+-")
			if !l.skipAny(decDigits) {
				return typ, false
			}
			typ = itemFloat
		}
		if l.skipOne("fFdD") {
			typ = itemFloat
		} else if typ == itemInteger {
			l.skipOne("lL")
		}
	}
	if r, width := utf8.DecodeRuneInString(l.input[l.pos:]); width > 0 && isIdentRune(r) {
		l.pos += width
		return typ, false
	}
	return typ, true
}

// quoted moves past the string literal opening at the current position.
// Backslash escapes are skipped here and decoded by unquoteString.
func (l *lexer) quoted(quote byte) bool {
	for i := l.pos + 1; i < len(l.input); i++ {
		switch l.input[i] {
		case '\\':
			if quote != '`' {
				i++
			}
		case quote:
			l.pos = i + 1
			return true
		}
	}
	return false
}

func (l *lexer) skipPrefix(prefix string) bool {
	if strings.HasPrefix(l.input[l.pos:], prefix) {
		l.pos += len(prefix)
		return true
	}
	return false
}

func (l *lexer) skipOne(set string) bool {
	if l.pos < len(l.input) && strings.IndexByte(set, l.input[l.pos]) >= 0 {
		l.pos++
		return true
	}
	return false
}

func (l *lexer) skipAny(set string) bool {
	var start = l.pos
	for l.skipOne(set) {
	}
	return l.pos > start
}

func (l *lexer) skipWhile(f func(rune) bool) {
	for l.pos < len(l.input) {
		var r, width = utf8.DecodeRuneInString(l.input[l.pos:])
		if !f(r) {
			return
		}
		l.pos += width
	}
}

func keyword(word string) itemType {
	switch word {
	case "true", "false":
		return itemBool
	case "null":
		return itemNull
	}
	return itemIdent
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
