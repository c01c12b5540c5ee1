package parse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// quoteString renders s as a single-quoted literal that unquoteString reads
// back unchanged.  Non-ASCII runes are written as-is.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\', '\'':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// unquoteString returns the value of a string literal token, quotes
// included.  Back-quoted literals are raw; single and double quoted ones
// understand backslash escapes.
func unquoteString(lit string) (string, error) {
	if len(lit) < 2 {
		return "", errors.New("too short a string")
	}
	var q = lit[0]
	if (q != '\'' && q != '"' && q != '`') || lit[len(lit)-1] != q {
		return "", errors.New("string not surrounded by quotes")
	}
	var body = lit[1 : len(lit)-1]
	if q == '`' {
		return body, nil
	}

	var b strings.Builder
	for {
		var i = strings.IndexByte(body, '\\')
		if i < 0 {
			b.WriteString(body)
			return b.String(), nil
		}
		b.WriteString(body[:i])
		if i+1 == len(body) {
			return "", errors.New("unrecognized escape code: \\")
		}
		var c = body[i+1]
		body = body[i+2:]
		switch c {
		case '\\', '\'', '"':
			b.WriteByte(c)
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if len(body) < 4 {
				return "", errors.New("error scanning unicode escape, expect \\uNNNN")
			}
			var code, err = strconv.ParseUint(body[:4], 16, 16)
			if err != nil {
				return "", fmt.Errorf("bad unicode escape \\u%s: %v", body[:4], err)
			}
			b.WriteRune(rune(code))
			body = body[4:]
		default:
			return "", fmt.Errorf("unrecognized escape code: \\%c", c)
		}
	}
}
