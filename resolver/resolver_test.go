package resolver

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/errortypes"
)

func TestMap(t *testing.T) {
	var r Resolver = Map{"a": data.Int(1)}
	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, data.Int(1), v)
	_, ok = r.Get("b")
	assert.False(t, ok)
}

func TestEnv(t *testing.T) {
	t.Setenv("HASHTPL_TEST_HOME", "/home/test")
	v, ok := Env{Prefix: "HASHTPL_TEST_"}.Get("HOME")
	require.True(t, ok)
	assert.Equal(t, data.String("/home/test"), v)
	_, ok = Env{Prefix: "HASHTPL_TEST_"}.Get("MISSING")
	assert.False(t, ok)
}

func TestStoreConcurrent(t *testing.T) {
	var s Store
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set("k", data.Int(i))
			_, _ = s.Get("k")
		}(i)
	}
	wg.Wait()
	_, ok := s.Get("k")
	assert.True(t, ok)
	s.Delete("k")
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestYAML(t *testing.T) {
	m, err := YAMLFile("testdata/globals.yaml")
	require.NoError(t, err)
	site, ok := m.Get("site")
	require.True(t, ok)
	assert.Equal(t, data.String("Example"), site.(data.Map).Key("name"))
	assert.Equal(t, data.Long(2024), site.(data.Map).Key("year"))
	features, _ := m.Get("features")
	assert.Equal(t, data.List{data.String("search"), data.String("feeds")}, features)

	empty, err := YAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = YAMLFile("testdata/missing.yaml")
	assert.True(t, errors.Is(err, errortypes.ErrNotFound))
}

func TestCatalog(t *testing.T) {
	c, err := LoadCatalog("testdata", language.MustParse("de-AT"))
	require.NoError(t, err)
	assert.Equal(t, "de-AT", c.Locale.String())
	assert.Equal(t, "Hallo, {0}!", c.Message("Hello, {0}!"))
	assert.Equal(t, "untranslated", c.Message("untranslated"))
	assert.Equal(t, "{0} Datei", c.Plural("{0} file", 1))
	assert.Equal(t, "{0} Dateien", c.Plural("{0} file", 5))

	get, ok := c.Member("get")
	require.True(t, ok)
	v, err := get.Apply(c, []data.Value{data.String("Hello, {0}!"), data.String("Ana")})
	require.NoError(t, err)
	assert.Equal(t, data.String("Hallo, Ana!"), v)

	plural, ok := c.Member("plural")
	require.True(t, ok)
	v, err = plural.Apply(c, []data.Value{data.String("{0} file"), data.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, data.String("3 Dateien"), v)

	title, ok := data.LookupMember(c, "title")
	require.True(t, ok)
	v, err = title.Apply(c, nil)
	require.NoError(t, err)
	assert.Equal(t, data.String("Titel"), v)

	_, ok = c.Member("nope")
	assert.False(t, ok)
}

func TestCatalogNotFound(t *testing.T) {
	_, err := LoadCatalog("testdata", language.French)
	assert.True(t, errors.Is(err, errortypes.ErrNotFound))
}

func TestMessages(t *testing.T) {
	c, err := LoadCatalog("testdata", language.German)
	require.NoError(t, err)
	var r Resolver = Messages{Name: "messages", Catalog: c}
	v, ok := r.Get("messages")
	require.True(t, ok)
	assert.Same(t, c, v)
	_, ok = r.Get("other")
	assert.False(t, ok)
}

func TestFallbacks(t *testing.T) {
	var tests = []struct {
		in       string
		expected []string
	}{
		{"zh-Hant-TW", []string{"zh-Hant-TW", "zh-Hant", "zh"}},
		{"en-US", []string{"en-US", "en"}},
		{"fr", []string{"fr"}},
	}
	for _, test := range tests {
		var actual []string
		for _, tag := range Fallbacks(language.MustParse(test.in)) {
			actual = append(actual, tag.String())
		}
		assert.Equal(t, test.expected, actual, test.in)
	}
}
