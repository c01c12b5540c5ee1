// Package loader finds template sources by name and locale.
//
// A localized lookup tries the most specific variant of the name first:
// "page.httl" in locale zh-Hant-TW resolves to the first existing of
// page_zh_Hant_TW.httl, page_zh_Hant.httl, page_zh.httl and page.httl.
package loader

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/errortypes"
	"github.com/robfig/hashtpl/resolver"
)

// Resource is a loaded template source.
type Resource struct {
	Name         string       // the name it was found under, after locale fallback
	Path         string       // file system path, if it has one
	Locale       language.Tag // the requested locale
	Encoding     string
	LastModified time.Time
	Source       string
}

// Loader provides template sources.
type Loader interface {
	// Exists reports whether the named template exists in locale or one of
	// its fallbacks.
	Exists(name string, locale language.Tag) bool

	// LastModified returns the modification time of the resource that Load
	// would return, without reading it.
	LastModified(name string, locale language.Tag) (time.Time, error)

	// Load reads the named template, decoding it from the given charset.  An
	// empty encoding uses the loader's default.
	Load(name string, locale language.Tag, encoding string) (*Resource, error)
}

// Candidates returns the names a localized lookup tries, most specific
// first.  The undetermined locale only tries the name itself.
func Candidates(name string, locale language.Tag) []string {
	var ext = path.Ext(name)
	var base = strings.TrimSuffix(name, ext)
	var names []string
	if locale != language.Und {
		for _, tag := range resolver.Fallbacks(locale) {
			if tag == language.Und {
				continue
			}
			names = append(names, base+"_"+strings.ReplaceAll(tag.String(), "-", "_")+ext)
		}
	}
	return append(names, name)
}

// Decode converts src from the named IANA charset to UTF-8.
func Decode(name string, src []byte, charset string) (string, error) {
	var enc, err = lookupEncoding(charset)
	if err != nil {
		return "", &errortypes.ResourceError{Name: name, Kind: errortypes.Encoding, Err: err}
	}
	if enc == nil {
		return string(bytes.TrimPrefix(src, utf8BOM)), nil
	}
	out, err := enc.NewDecoder().Bytes(src)
	if err != nil {
		return "", &errortypes.ResourceError{Name: name, Kind: errortypes.Encoding, Err: err}
	}
	return string(out), nil
}

var utf8BOM = []byte("\xef\xbb\xbf")

// lookupEncoding returns nil for UTF-8, which needs no decoding.
func lookupEncoding(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	var enc, err = ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// Chain returns a Loader that consults each loader in turn.  The first one
// that has a template provides it.
func Chain(loaders ...Loader) Loader {
	return chain(loaders)
}

type chain []Loader

func (c chain) find(name string, locale language.Tag) (Loader, error) {
	for _, l := range c {
		if l.Exists(name, locale) {
			return l, nil
		}
	}
	return nil, errortypes.NewNotFound(name)
}

func (c chain) Exists(name string, locale language.Tag) bool {
	var _, err = c.find(name, locale)
	return err == nil
}

func (c chain) LastModified(name string, locale language.Tag) (time.Time, error) {
	var l, err = c.find(name, locale)
	if err != nil {
		return time.Time{}, err
	}
	return l.LastModified(name, locale)
}

func (c chain) Load(name string, locale language.Tag, encoding string) (*Resource, error) {
	var l, err = c.find(name, locale)
	if err != nil {
		return nil, err
	}
	return l.Load(name, locale, encoding)
}
