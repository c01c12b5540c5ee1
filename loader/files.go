package loader

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/errortypes"
)

// Files loads templates from a directory.
type Files struct {
	Dir      string
	Suffix   string // appended to names without an extension, e.g. ".httl"
	Encoding string // default charset, UTF-8 if empty
}

// NewFiles returns a loader rooted at dir.
func NewFiles(dir, suffix, encoding string) *Files {
	return &Files{Dir: dir, Suffix: suffix, Encoding: encoding}
}

// Path returns the file that name maps to.  Names can not escape Dir.
func (f *Files) Path(name string) string {
	return filepath.Join(f.Dir, filepath.FromSlash(path.Clean("/"+name)))
}

func (f *Files) withSuffix(name string) string {
	if f.Suffix != "" && path.Ext(name) == "" {
		return name + f.Suffix
	}
	return name
}

// resolve returns the first candidate that exists, and its file info.
func (f *Files) resolve(name string, locale language.Tag) (string, fs.FileInfo, error) {
	name = f.withSuffix(name)
	for _, candidate := range Candidates(name, locale) {
		var info, err = os.Stat(f.Path(candidate))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return "", nil, &errortypes.ResourceError{Name: candidate, Kind: errortypes.IO, Err: err}
		case info.IsDir():
			continue
		}
		return candidate, info, nil
	}
	return "", nil, errortypes.NewNotFound(name)
}

func (f *Files) Exists(name string, locale language.Tag) bool {
	var _, _, err = f.resolve(name, locale)
	return err == nil
}

func (f *Files) LastModified(name string, locale language.Tag) (time.Time, error) {
	var _, info, err = f.resolve(name, locale)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (f *Files) Load(name string, locale language.Tag, encoding string) (*Resource, error) {
	var found, info, err = f.resolve(name, locale)
	if err != nil {
		return nil, err
	}
	var filename = f.Path(found)
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, &errortypes.ResourceError{Name: found, Kind: errortypes.IO, Err: err}
	}
	if encoding == "" {
		encoding = f.Encoding
	}
	source, err := Decode(found, content, encoding)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:         found,
		Path:         filename,
		Locale:       locale,
		Encoding:     encoding,
		LastModified: info.ModTime(),
		Source:       source,
	}, nil
}

// Walk calls fn with the name of every template file beneath Dir.
func (f *Files) Walk(fn func(name string) error) error {
	return filepath.WalkDir(f.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || (f.Suffix != "" && !strings.HasSuffix(p, f.Suffix)) {
			return nil
		}
		var rel, relErr = filepath.Rel(f.Dir, p)
		if relErr != nil {
			return relErr
		}
		return fn(filepath.ToSlash(rel))
	})
}
