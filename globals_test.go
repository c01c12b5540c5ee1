package hashtpl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robfig/hashtpl/data"
)

func TestParseGlobals(t *testing.T) {
	var input = `
## site settings
site.name = 'Example'
year = 2024
ratio = 0.5d
big = 10000000000L
debug = false
missing = null
features = ['search', 'feeds']
limits = ['depth': 3]
`
	var globals, err = ParseGlobals(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	var expected = data.Map{
		"site.name": data.String("Example"),
		"year":      data.Int(2024),
		"ratio":     data.Double(0.5),
		"big":       data.Long(10000000000),
		"debug":     data.Bool(false),
		"missing":   data.Null{},
		"features":  data.List{data.String("search"), data.String("feeds")},
		"limits":    data.Map{"depth": data.Int(3)},
	}
	if diff := cmp.Diff(expected, globals); diff != "" {
		t.Errorf("globals (-want +got):\n%s", diff)
	}
}

func TestParseGlobalsErrors(t *testing.T) {
	for _, input := range []string{
		"no equals",
		"a = 1\na = 2",
		"a = (1",
		"a = 1 / 0",
	} {
		if _, err := ParseGlobals(strings.NewReader(input)); err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}
