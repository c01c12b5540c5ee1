package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDefault(t *testing.T) {
	var c = Default()
	assert.Equal(t, ".", c.Template.Directory)
	assert.Equal(t, ".httl", c.Template.Suffix)
	assert.Equal(t, BackendInterpreter, c.Backend)
	assert.Equal(t, "status", c.Loop.Status)
	assert.Equal(t, 100, c.Limits.MaxDepth)
	assert.Equal(t, "end", c.Keywords.End)
	assert.False(t, c.Reload)

	locale, err := c.Locale()
	require.NoError(t, err)
	assert.Equal(t, language.Und, locale)
}

func TestReadFile(t *testing.T) {
	c, err := ReadFile("testdata/hashtpl.yaml")
	require.NoError(t, err)
	assert.Equal(t, "templates", c.Template.Directory)
	assert.Equal(t, ".httl", c.Template.Suffix, "unset keys keep their default")
	assert.True(t, c.Reload)
	assert.Equal(t, BackendJavaScript, c.Backend)
	assert.Equal(t, "html", c.Output.Escape)
	assert.Equal(t, "-", c.Output.NullText)
	assert.Equal(t, 10, c.Limits.MaxDepth)
	assert.Equal(t, map[string]string{"site": "example.com"}, c.Properties)
	assert.Equal(t, "fi", c.Keywords.End)
	assert.Equal(t, "if", c.Keywords.If)

	locale, err := c.Locale()
	require.NoError(t, err)
	assert.Equal(t, language.MustParse("de-DE"), locale)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HASHTPL_TEMPLATE_LOCALE", "fr")
	t.Setenv("HASHTPL_LIMITS_MAXDEPTH", "7")
	t.Setenv("HASHTPL_RELOAD", "true")

	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "fr", c.Template.Locale)
	assert.Equal(t, 7, c.Limits.MaxDepth)
	assert.True(t, c.Reload)
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		key   string
		value interface{}
	}{
		{"backend", "perl"},
		{"output.escape", "rot13"},
		{"template.locale", "not a locale!"},
		{"limits.maxDepth", 0},
		{"loop.status", ""},
	}
	for _, test := range tests {
		var v = New()
		v.Set(test.key, test.value)
		_, err := Load(v)
		assert.Error(t, err, test.key)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("testdata/missing.yaml")
	assert.Error(t, err)
}
