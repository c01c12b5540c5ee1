package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cmd = newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	var err = cmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	var out, err = run(t, "render", "--dir", "testdata/views", "--data", "testdata/vars.yaml", "page")
	require.NoError(t, err)
	assert.Equal(t, "Hello World! search feeds", out)
}

func TestRenderJavaScript(t *testing.T) {
	var out, err = run(t, "render", "--dir", "testdata/views", "--backend", "JavaScript",
		"--data", "testdata/vars.yaml", "page")
	require.NoError(t, err)
	assert.Equal(t, "Hello World! search feeds", out)
}

func TestRenderMissing(t *testing.T) {
	var _, err = run(t, "render", "--dir", "testdata/views", "nope")
	assert.Error(t, err)
}

func TestCheckDirectory(t *testing.T) {
	var out, err = run(t, "check", "--dir", "testdata/views")
	require.NoError(t, err)
	assert.Contains(t, out, "ok  page.httl")
	assert.Contains(t, out, "ok  part/list.httl")
}

func TestCheckFiles(t *testing.T) {
	var out, err = run(t, "check", "testdata/views/page.httl", "testdata/broken.httl")
	require.EqualError(t, err, "1 of 2 templates failed")
	assert.Contains(t, out, "ok  testdata/views/page.httl")
	assert.Contains(t, out, "testdata/broken.httl:2:")
}

func TestTokens(t *testing.T) {
	var out, err = run(t, "tokens", "testdata/views/page.httl")
	require.NoError(t, err)
	assert.Contains(t, out, `interpolation  "${name}"`)
	assert.Contains(t, out, `directive      "#for(f : features)"`)
}

func TestBadFlag(t *testing.T) {
	var _, err = run(t, "render", "--backend", "perl", "page")
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "tokens", "testdata/views/page.httl")
	assert.Error(t, err)
}
