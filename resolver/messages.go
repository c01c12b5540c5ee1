package resolver

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/gettext/po"
	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/errortypes"
)

// Catalog holds the translated messages of one locale, read from a PO file.
// Templates reach it through a Messages resolver:
//
//	${messages.get('Hello, {0}!', name)}
//	${messages.plural('{0} file', count)}
type Catalog struct {
	Locale    language.Tag
	messages  map[string]po.Message
	pluralize po.PluralSelector
}

var _ data.Object = (*Catalog)(nil)

// ParseCatalog reads a PO file for the given locale.
func ParseCatalog(locale language.Tag, r io.Reader) (*Catalog, error) {
	var file, err = po.Parse(r)
	if err != nil {
		return nil, err
	}
	var pluralize = file.Pluralize
	if pluralize == nil {
		pluralize = po.PluralSelectorForLanguage(locale.String())
	}
	if pluralize == nil {
		pluralize = func(n int) int {
			if n == 1 {
				return 0
			}
			return 1
		}
	}
	var c = &Catalog{locale, make(map[string]po.Message, len(file.Messages)), pluralize}
	for _, msg := range file.Messages {
		if msg.Id != "" {
			c.messages[msg.Id] = msg
		}
	}
	return c, nil
}

// LoadCatalog reads <dir>/<locale>.po, falling back to more general locales
// (zh_Hant_TW, zh_Hant, zh) when the specific file does not exist.
func LoadCatalog(dir string, locale language.Tag) (*Catalog, error) {
	for _, tag := range Fallbacks(locale) {
		var filename = filepath.Join(dir, strings.ReplaceAll(tag.String(), "-", "_")+".po")
		switch f, err := os.Open(filename); {
		case os.IsNotExist(err):
			continue
		case err != nil:
			return nil, &errortypes.ResourceError{Name: filename, Kind: errortypes.IO, Err: err}
		default:
			c, err := ParseCatalog(locale, f)
			f.Close()
			if err != nil {
				return nil, &errortypes.ResourceError{Name: filename, Kind: errortypes.Encoding, Err: err}
			}
			return c, nil
		}
	}
	return nil, errortypes.NewNotFound(filepath.Join(dir, locale.String()+".po"))
}

// Fallbacks returns the tags that can be substituted for a tag, starting with
// the tag itself and ordered by increasing generality.
func Fallbacks(tag language.Tag) []language.Tag {
	result := []language.Tag{}
	lang, script, region := tag.Raw()
	// The language package returns ZZ for an unspecified region, similar quirk for script.
	if region.String() != "ZZ" {
		t, _ := language.Compose(lang, script, region)
		result = append(result, t)
	}
	if script.String() != "Zzzz" {
		t, _ := language.Compose(lang, script)
		result = append(result, t)
	}
	t, _ := language.Compose(lang)
	result = append(result, t)
	return result
}

// Message returns the translation of id, or id itself if there is none.
func (c *Catalog) Message(id string) string {
	if msg, ok := c.messages[id]; ok && len(msg.Str) > 0 && msg.Str[0] != "" {
		return msg.Str[0]
	}
	return id
}

// Plural returns the plural form of id for the count n.
func (c *Catalog) Plural(id string, n int) string {
	var msg, ok = c.messages[id]
	var i = c.pluralize(n)
	if !ok || i < 0 || i >= len(msg.Str) || msg.Str[i] == "" {
		if n == 1 || msg.IdPlural == "" {
			return id
		}
		return msg.IdPlural
	}
	return msg.Str[i]
}

func (c *Catalog) Truthy() bool   { return true }
func (c *Catalog) String() string { return "messages(" + c.Locale.String() + ")" }

func (c *Catalog) Equals(other data.Value) bool {
	o, ok := other.(*Catalog)
	return ok && o == c
}

func (c *Catalog) Member(name string) (data.Method, bool) {
	switch name {
	case "get":
		return data.Method{Apply: c.get, ValidArgLengths: []int{1, 2, 3, 4, 5}}, true
	case "plural":
		return data.Method{Apply: c.plural, ValidArgLengths: []int{2, 3, 4, 5}}, true
	case "locale":
		return data.Method{Apply: func(data.Value, []data.Value) (data.Value, error) {
			return data.String(c.Locale.String()), nil
		}, ValidArgLengths: []int{0}}, true
	}
	if _, ok := c.messages[name]; ok {
		return data.Method{Apply: func(data.Value, []data.Value) (data.Value, error) {
			return data.String(c.Message(name)), nil
		}, ValidArgLengths: []int{0}}, true
	}
	return data.Method{}, false
}

func (c *Catalog) get(_ data.Value, args []data.Value) (data.Value, error) {
	var id, err = data.ArgString(args, 0)
	if err != nil {
		return nil, err
	}
	return data.String(substitute(c.Message(id), args[1:])), nil
}

func (c *Catalog) plural(_ data.Value, args []data.Value) (data.Value, error) {
	var id, err = data.ArgString(args, 0)
	if err != nil {
		return nil, err
	}
	n, err := data.ArgInt(args, 1)
	if err != nil {
		return nil, err
	}
	return data.String(substitute(c.Plural(id, n), args[1:])), nil
}

// substitute replaces the placeholders {0}, {1}, ... with args.
func substitute(msg string, args []data.Value) string {
	if len(args) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	var pairs = make([]string, 0, 2*len(args))
	for i, arg := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", arg.String())
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Messages exposes a catalog to templates under a single name.
type Messages struct {
	Name    string
	Catalog *Catalog
}

func (m Messages) Get(name string) (data.Value, bool) {
	if name != m.Name || m.Catalog == nil {
		return nil, false
	}
	return m.Catalog, true
}
