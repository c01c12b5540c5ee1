//go:build property
// +build property

package parse

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/robfig/hashtpl/ast"
)

// TestScannerProperties tests invariant properties of the template scanner
func TestScannerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property 1: tokens of a successful scan cover the input exactly, in order
	properties.Property("scan covers input", prop.ForAll(
		func(input string) bool {
			tokens, err := Scan(input)
			if err != nil {
				return true // unterminated constructs are reported, not covered
			}
			var sb strings.Builder
			for _, tok := range tokens {
				if tok.Offset != sb.Len() || tok.Text == "" {
					return false
				}
				sb.WriteString(tok.Text)
			}
			return sb.String() == input
		},
		gen.AnyString(),
	))

	// Property 2: text without any special characters is a single text token
	properties.Property("plain text", prop.ForAll(
		func(input string) bool {
			tokens, err := Scan(input)
			return err == nil && len(tokens) == 1 && tokens[0].Kind == TokenText
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}

// TestBlockProperties tests that #if/#end nesting is accepted exactly when
// balanced.
func TestBlockProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("balanced blocks parse", prop.ForAll(
		func(steps []int) bool {
			var sb strings.Builder
			var depth, maxDepth, balanced = 0, 0, true
			for _, step := range steps {
				switch step {
				case 0:
					sb.WriteString("#if(true)")
					depth++
					if depth > maxDepth {
						maxDepth = depth
					}
				case 1:
					sb.WriteString("#end")
					depth--
					if depth < 0 {
						balanced = false
					}
				default:
					sb.WriteString("x")
				}
			}
			balanced = balanced && depth == 0

			root, err := Parse("prop", sb.String(), 0, Options{})
			if (err == nil) != balanced {
				return false
			}
			return err != nil || ast.Depth(root) == maxDepth
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}
