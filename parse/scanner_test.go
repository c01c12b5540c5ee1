package parse

import (
	"strings"
	"testing"
)

type scanTest struct {
	name   string
	input  string
	tokens []Token
}

var scanTests = []scanTest{
	{"empty", "", nil},
	{"text", "hello", []Token{{TokenText, "hello", 0}}},
	{"interpolation", "a${b}c", []Token{
		{TokenText, "a", 0},
		{TokenInterpolation, "${b}", 1},
		{TokenText, "c", 5},
	}},
	{"raw interpolation", "$!{b}", []Token{{TokenInterpolation, "$!{b}", 0}}},
	{"directive", "#if(x > 1)yes#end", []Token{
		{TokenDirective, "#if(x > 1)", 0},
		{TokenText, "yes", 10},
		{TokenDirective, "#end", 13},
	}},
	{"nested parens", "#if(f(a, ')'))", []Token{{TokenDirective, "#if(f(a, ')'))", 0}}},
	{"brace in string", "${'}'}", []Token{{TokenInterpolation, "${'}'}", 0}}},
	{"line comment", "## note\nx", []Token{
		{TokenComment, "## note\n", 0},
		{TokenText, "x", 8},
	}},
	{"block comment", "#* c **#x", []Token{
		{TokenComment, "#* c **#", 0},
		{TokenText, "x", 8},
	}},
	{"literal", "#[[ ${x} ]]#", []Token{{TokenLiteral, "#[[ ${x} ]]#", 0}}},
	{"escapes", `\#a$$b\\`, []Token{
		{TokenEscape, `\#`, 0},
		{TokenText, "a", 2},
		{TokenEscape, "$$", 3},
		{TokenText, "b", 5},
		{TokenEscape, `\\`, 6},
	}},
	{"reference", "$user.name.", []Token{
		{TokenInterpolation, "$user.name", 0},
		{TokenText, ".", 10},
	}},
	{"reference call", "$user.greet('hi') ok", []Token{
		{TokenInterpolation, "$user.greet('hi')", 0},
		{TokenText, " ok", 17},
	}},
	{"reference index", "$items[0] ok", []Token{
		{TokenInterpolation, "$items[0]", 0},
		{TokenText, " ok", 9},
	}},
	{"lone dollar", "$1", []Token{{TokenText, "$1", 0}}},
	{"lone hash", "#1", []Token{{TokenText, "#1", 0}}},
}

func TestScan(t *testing.T) {
	for _, test := range scanTests {
		var tokens, err = Scan(test.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if !equalTokens(tokens, test.tokens) {
			t.Errorf("%s: got\n\t%v\nexpected\n\t%v", test.name, tokens, test.tokens)
		}
	}
}

func TestScanErrors(t *testing.T) {
	var tests = []struct {
		input  string
		offset int
		msg    string
	}{
		{"${x", 0, "unclosed interpolation"},
		{"ab#if(x", 2, "unclosed directive arguments"},
		{"#* x", 0, "unclosed block comment"},
		{"x #[[ y", 2, "unclosed literal block"},
		{"${'x}", 0, "unterminated string"},
		{"$a[1", 0, "unclosed index"},
	}
	for _, test := range tests {
		var _, err = Scan(test.input)
		var se, ok = err.(*ScanError)
		if !ok {
			t.Errorf("%q: expected a ScanError, got %v", test.input, err)
			continue
		}
		if se.Offset != test.offset || se.Msg != test.msg {
			t.Errorf("%q: got %v, expected offset %d: %s", test.input, se, test.offset, test.msg)
		}
	}
}

// Adjacent text runs are not merged by the scanner, so compare their
// concatenation.
func TestScanCoversInput(t *testing.T) {
	for _, input := range []string{
		"a#1b$2c",
		"x\\y#if(a)#*b*#$c.d(1)${e}",
		"#[[ ]]#$$\\$",
	} {
		var tokens, err = Scan(input)
		if err != nil {
			t.Errorf("%q: %v", input, err)
			continue
		}
		var sb strings.Builder
		for _, tok := range tokens {
			if tok.Offset != sb.Len() {
				t.Errorf("%q: token %v at offset %d, expected %d", input, tok, tok.Offset, sb.Len())
			}
			sb.WriteString(tok.Text)
		}
		if sb.String() != input {
			t.Errorf("%q: tokens cover %q", input, sb.String())
		}
	}
}

func equalTokens(t1, t2 []Token) bool {
	if len(t1) != len(t2) {
		return false
	}
	for i := range t1 {
		if t1[i] != t2[i] {
			return false
		}
	}
	return true
}
