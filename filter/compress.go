package filter

import "strings"

// CompressBlank is a text filter for markup.  It removes whitespace runs that
// contain a newline, joining the surrounding lines with a single space unless
// either side is a tag bracket.  Whitespace within a line is kept.
var CompressBlank Filter = FilterFunc(func(_, text string) string {
	return compress(text)
})

func compress(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if !isBlank(s[i]) {
			b.WriteByte(s[i])
			i++
			continue
		}
		var j = i + 1
		for j < len(s) && isBlank(s[j]) {
			j++
		}
		// s[i-1] and s[j] are never blank: runs are maximal.
		switch run := s[i:j]; {
		case !strings.ContainsAny(run, "\r\n"):
			b.WriteString(run)
		case i > 0 && j < len(s) && !isTightJoiner(s[i-1]) && !isTightJoiner(s[j]):
			b.WriteByte(' ')
		}
		i = j
	}
	return b.String()
}

// isBlank reports ASCII whitespace; multi-byte runes never match, so scanning
// bytes is safe for UTF-8 input.
func isBlank(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

func isTightJoiner(c byte) bool {
	return c == '<' || c == '>'
}
