package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/errortypes"
)

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{"page.httl"}, Candidates("page.httl", language.Und))
	assert.Equal(t, []string{"page_zh_CN.httl", "page_zh.httl", "page.httl"},
		Candidates("page.httl", language.MustParse("zh-CN")))
	assert.Equal(t, []string{"dir/page_de.httl", "dir/page.httl"},
		Candidates("dir/page.httl", language.German))
}

func TestFiles(t *testing.T) {
	var files = NewFiles("testdata", ".httl", "")

	assert.True(t, files.Exists("page", language.Und))
	assert.False(t, files.Exists("missing", language.Und))

	res, err := files.Load("page", language.MustParse("de-AT"), "")
	require.NoError(t, err)
	assert.Equal(t, "page_de.httl", res.Name)
	assert.Equal(t, "Hallo ${name}!\n", res.Source)
	assert.Equal(t, filepath.Join("testdata", "page_de.httl"), res.Path)

	res, err = files.Load("page.httl", language.French, "")
	require.NoError(t, err)
	assert.Equal(t, "page.httl", res.Name)

	mod, err := files.LastModified("page", language.Und)
	require.NoError(t, err)
	assert.Equal(t, res.LastModified, mod)

	_, err = files.Load("missing", language.Und, "")
	assert.True(t, errors.Is(err, errortypes.ErrNotFound))
}

func TestFilesEncoding(t *testing.T) {
	var files = NewFiles("testdata", "", "")
	res, err := files.Load("latin1.httl", language.Und, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", res.Source)

	_, err = files.Load("latin1.httl", language.Und, "no-such-charset")
	var re *errortypes.ResourceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, errortypes.Encoding, re.Kind)
}

func TestDecodeStripsBOM(t *testing.T) {
	s, err := Decode("x", []byte("\xef\xbb\xbfhi"), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestFilesPathStaysInDir(t *testing.T) {
	var files = NewFiles("testdata", "", "")
	assert.Equal(t, filepath.Join("testdata", "etc", "passwd"), files.Path("../../etc/passwd"))
}

func TestFilesWalk(t *testing.T) {
	var names []string
	require.NoError(t, NewFiles("testdata", ".httl", "").Walk(func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.ElementsMatch(t, []string{"latin1.httl", "page.httl", "page_de.httl"}, names)
}

func TestMemory(t *testing.T) {
	var mem = NewMemory(map[string]string{"a": "one"})
	var frozen = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return frozen }

	first, err := mem.LastModified("a", language.Und)
	require.NoError(t, err)
	mem.Set("a", "two")
	mem.Set("a", "three")
	second, err := mem.LastModified("a", language.Und)
	require.NoError(t, err)
	assert.True(t, second.After(first), "replacement must be newer")

	res, err := mem.Load("a", language.Und, "")
	require.NoError(t, err)
	assert.Equal(t, "three", res.Source)

	mem.Remove("a")
	_, err = mem.Load("a", language.Und, "")
	assert.ErrorIs(t, err, errortypes.ErrNotFound)
}

func TestChain(t *testing.T) {
	var first = NewMemory(map[string]string{"shared": "first"})
	var second = NewMemory(map[string]string{"shared": "second", "only": "second"})
	var c = Chain(first, second)

	res, err := c.Load("shared", language.Und, "")
	require.NoError(t, err)
	assert.Equal(t, "first", res.Source)

	res, err = c.Load("only", language.Und, "")
	require.NoError(t, err)
	assert.Equal(t, "second", res.Source)

	assert.False(t, c.Exists("neither", language.Und))
	_, err = c.LastModified("neither", language.Und)
	assert.ErrorIs(t, err, errortypes.ErrNotFound)
}

func TestWatcher(t *testing.T) {
	var dir = t.TempDir()
	var filename = filepath.Join(dir, "page.httl")
	require.NoError(t, os.WriteFile(filename, []byte("one"), 0644))

	w, err := NewWatcher(nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(filename))
	require.NoError(t, w.Add(filename))

	var changed = make(chan string, 10)
	var ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func(name string) { changed <- name })

	require.NoError(t, os.WriteFile(filename, []byte("two"), 0644))
	select {
	case name := <-changed:
		assert.Equal(t, filepath.Clean(filename), name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
