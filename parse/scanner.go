package parse

import "fmt"

// TokenKind classifies a run of template text.
type TokenKind int

const (
	TokenText          TokenKind = iota // literal text
	TokenDirective                      // #name or #name(args)
	TokenInterpolation                  // ${expr}, $!{expr} or $ref
	TokenComment                        // ## line or #* block *#
	TokenLiteral                        // #[[ unparsed ]]#
	TokenEscape                         // \# \$ \\ or $$
)

var tokenNames = [...]string{
	TokenText:          "text",
	TokenDirective:     "directive",
	TokenInterpolation: "interpolation",
	TokenComment:       "comment",
	TokenLiteral:       "literal",
	TokenEscape:        "escape",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenNames) {
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
	return tokenNames[k]
}

// Token is a classified run of template text.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int // byte offset of the run in the scanned text
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%d:%q", t.Kind, t.Offset, t.Text)
}

// ScanError reports text that ends inside an unterminated construct.
type ScanError struct {
	Offset int // start of the offending run
	Msg    string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// Scanner ---------------------------------------------------------------------

// The scanner is a deterministic finite-state machine.  Each step looks up
// transitions[state][class of the next byte] and performs the action found
// there.  A stack of return states tracks nested parentheses, braces,
// brackets and quoted strings inside directive arguments and interpolations.

type charClass uint8

const (
	cOther charClass = iota
	cSpace
	cNewline
	cLetter // a-z A-Z _
	cDigit
	cHash
	cDollar
	cBang
	cStar
	cLParen
	cRParen
	cLBrace
	cRBrace
	cLBrack
	cRBrack
	cSQuote
	cDQuote
	cBQuote
	cBackslash
	cDot
	cEOF
	numClasses
)

var classes [256]charClass

func init() {
	for c := 'a'; c <= 'z'; c++ {
		classes[c] = cLetter
		classes[c-'a'+'A'] = cLetter
	}
	for c := '0'; c <= '9'; c++ {
		classes[c] = cDigit
	}
	for c, class := range map[byte]charClass{
		'_': cLetter, ' ': cSpace, '\t': cSpace, '\r': cSpace, '\n': cNewline,
		'#': cHash, '$': cDollar, '!': cBang, '*': cStar,
		'(': cLParen, ')': cRParen, '{': cLBrace, '}': cRBrace, '[': cLBrack, ']': cRBrack,
		'\'': cSQuote, '"': cDQuote, '`': cBQuote, '\\': cBackslash, '.': cDot,
	} {
		classes[c] = class
	}
}

type scanState uint8

const (
	sText         scanState = iota
	sHash                   // after #
	sDirName                // #name
	sArgs                   // inside ( ) of a directive or call
	sBrace                  // inside ${ }
	sIndex                  // inside [ ] of a no-brace reference
	sSQuote                 // '...'
	sDQuote                 // "..."
	sBQuote                 // `...`
	sEscape                 // after \ inside a string
	sLineComment            // ##...
	sBlockComment           // #*...
	sBlockStar              // #*...*
	sLitOpen                // #[
	sLit                    // #[[...
	sLitClose1              // #[[...]
	sLitClose2              // #[[...]]
	sDollar                 // after $
	sDollarBang             // $!
	sRef                    // $name
	sRefDot                 // $name.
	sBackslash              // \ in text
	numStates

	// return-state sentinels
	sEmitDirective
	sEmitInterp
	sDone
)

type opcode uint8

const (
	opGo    opcode = iota // consume the byte, move to next
	opRe                  // move to next without consuming; next re-examines the byte
	opSplit               // emit the run before the byte as text, consume the byte into a new run
	opEmit                // emit the run, ending back bytes before the end of the current byte
	opPush                // push ret, consume the byte, move to next
	opPop                 // consume the byte, return to the popped state
	opFail                // unterminated construct
)

type action struct {
	op   opcode
	next scanState
	ret  scanState
	back int
	kind TokenKind
	msg  string
}

func goTo(next scanState) action      { return action{op: opGo, next: next} }
func reTo(next scanState) action      { return action{op: opRe, next: next} }
func split(next scanState) action     { return action{op: opSplit, next: next} }
func push(ret, next scanState) action { return action{op: opPush, next: next, ret: ret} }
func pop() action                     { return action{op: opPop} }
func fail(msg string) action          { return action{op: opFail, msg: msg} }

func emit(kind TokenKind, back int, next scanState) action {
	return action{op: opEmit, next: next, back: back, kind: kind}
}

var transitions [numStates][numClasses]action

// define sets every transition of state to def, then applies the overrides.
func define(state scanState, def action, overrides map[charClass]action) {
	for c := range transitions[state] {
		transitions[state][c] = def
	}
	for c, a := range overrides {
		transitions[state][c] = a
	}
}

func init() {
	define(sText, goTo(sText), map[charClass]action{
		cHash:      split(sHash),
		cDollar:    split(sDollar),
		cBackslash: split(sBackslash),
		cEOF:       emit(TokenText, 1, sDone),
	})
	define(sHash, reTo(sText), map[charClass]action{
		cLetter: goTo(sDirName),
		cHash:   goTo(sLineComment),
		cStar:   goTo(sBlockComment),
		cLBrack: goTo(sLitOpen),
	})
	define(sDirName, emit(TokenDirective, 1, sText), map[charClass]action{
		cLetter: goTo(sDirName),
		cDigit:  goTo(sDirName),
		cLParen: push(sEmitDirective, sArgs),
	})
	define(sArgs, goTo(sArgs), nested(sArgs, map[charClass]action{
		cLParen: push(sArgs, sArgs),
		cRParen: pop(),
		cEOF:    fail("unclosed directive arguments"),
	}))
	define(sBrace, goTo(sBrace), nested(sBrace, map[charClass]action{
		cLBrace: push(sBrace, sBrace),
		cRBrace: pop(),
		cEOF:    fail("unclosed interpolation"),
	}))
	define(sIndex, goTo(sIndex), nested(sIndex, map[charClass]action{
		cLBrack: push(sIndex, sIndex),
		cRBrack: pop(),
		cEOF:    fail("unclosed index"),
	}))
	for _, q := range []struct {
		state scanState
		class charClass
	}{{sSQuote, cSQuote}, {sDQuote, cDQuote}, {sBQuote, cBQuote}} {
		define(q.state, goTo(q.state), map[charClass]action{
			q.class:    pop(),
			cBackslash: push(q.state, sEscape),
			cEOF:       fail("unterminated string"),
		})
	}
	define(sEscape, pop(), map[charClass]action{
		cEOF: fail("unterminated string"),
	})
	define(sLineComment, goTo(sLineComment), map[charClass]action{
		cNewline: emit(TokenComment, 0, sText),
		cEOF:     emit(TokenComment, 1, sDone),
	})
	define(sBlockComment, goTo(sBlockComment), map[charClass]action{
		cStar: goTo(sBlockStar),
		cEOF:  fail("unclosed block comment"),
	})
	define(sBlockStar, goTo(sBlockComment), map[charClass]action{
		cHash: emit(TokenComment, 0, sText),
		cStar: goTo(sBlockStar),
		cEOF:  fail("unclosed block comment"),
	})
	define(sLitOpen, reTo(sText), map[charClass]action{
		cLBrack: goTo(sLit),
	})
	define(sLit, goTo(sLit), map[charClass]action{
		cRBrack: goTo(sLitClose1),
		cEOF:    fail("unclosed literal block"),
	})
	define(sLitClose1, goTo(sLit), map[charClass]action{
		cRBrack: goTo(sLitClose2),
		cEOF:    fail("unclosed literal block"),
	})
	define(sLitClose2, goTo(sLit), map[charClass]action{
		cHash:   emit(TokenLiteral, 0, sText),
		cRBrack: goTo(sLitClose2),
		cEOF:    fail("unclosed literal block"),
	})
	define(sDollar, reTo(sText), map[charClass]action{
		cLetter: goTo(sRef),
		cLBrace: push(sEmitInterp, sBrace),
		cBang:   goTo(sDollarBang),
		cDollar: emit(TokenEscape, 0, sText),
	})
	define(sDollarBang, reTo(sText), map[charClass]action{
		cLBrace: push(sEmitInterp, sBrace),
	})
	define(sRef, emit(TokenInterpolation, 1, sText), map[charClass]action{
		cLetter: goTo(sRef),
		cDigit:  goTo(sRef),
		cDot:    goTo(sRefDot),
		cLParen: push(sEmitInterp, sArgs),
		cLBrack: push(sEmitInterp, sIndex),
	})
	define(sRefDot, emit(TokenInterpolation, 2, sText), map[charClass]action{
		cLetter: goTo(sRef),
	})
	define(sBackslash, reTo(sText), map[charClass]action{
		cHash:      emit(TokenEscape, 0, sText),
		cDollar:    emit(TokenEscape, 0, sText),
		cBackslash: emit(TokenEscape, 0, sText),
	})
}

// nested adds the quote transitions shared by every bracketed state.
func nested(state scanState, m map[charClass]action) map[charClass]action {
	m[cSQuote] = push(state, sSQuote)
	m[cDQuote] = push(state, sDQuote)
	m[cBQuote] = push(state, sBQuote)
	return m
}

type scanner struct {
	text   string
	pos    int // next byte to examine
	start  int // start of the current run
	state  scanState
	stack  []scanState
	tokens []Token
}

// Scan splits text into tokens.  It does not interpret them: directive
// keywords and expressions are left to the parser.
func Scan(text string) ([]Token, error) {
	var s = &scanner{text: text}
	for s.state != sDone {
		var class = cEOF
		if s.pos < len(s.text) {
			class = classes[s.text[s.pos]]
		}
		var a = transitions[s.state][class]
		switch a.op {
		case opGo:
			s.pos++
			s.state = a.next
		case opRe:
			s.state = a.next
		case opSplit:
			s.emit(TokenText, s.pos)
			s.pos++
			s.state = a.next
		case opEmit:
			s.emit(a.kind, s.pos+1-a.back)
			s.pos = s.start
			s.state = a.next
		case opPush:
			s.stack = append(s.stack, a.ret)
			s.pos++
			s.state = a.next
		case opPop:
			s.pos++
			if len(s.stack) == 0 {
				return nil, &ScanError{s.start, "unbalanced close"}
			}
			var ret = s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			switch ret {
			case sEmitDirective:
				s.emit(TokenDirective, s.pos)
				s.state = sText
			case sEmitInterp:
				s.emit(TokenInterpolation, s.pos)
				s.state = sText
			default:
				s.state = ret
			}
		case opFail:
			return nil, &ScanError{s.start, a.msg}
		}
	}
	return s.tokens, nil
}

// emit appends the run from start to end, if it is not empty, and begins a
// new run at end.
func (s *scanner) emit(kind TokenKind, end int) {
	if end > s.start {
		s.tokens = append(s.tokens, Token{kind, s.text[s.start:end], s.start})
	}
	s.start = end
}
