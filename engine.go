package hashtpl

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/config"
	"github.com/robfig/hashtpl/jsbackend"
	"github.com/robfig/hashtpl/loader"
	"github.com/robfig/hashtpl/parse"
	"github.com/robfig/hashtpl/render"
	"github.com/robfig/hashtpl/resolver"
	"github.com/robfig/hashtpl/template"
)

// Engine loads, parses and caches templates.  It is safe for concurrent use.
type Engine struct {
	loader    loader.Loader
	env       *render.Env
	resolvers []resolver.Resolver
	store     resolver.Store
	opts      parse.Options
	locale    language.Tag
	encoding  string
	reload    bool
	backend   string
	logger    *slog.Logger

	cache sync.Map // key -> *slot

	watcher *loader.Watcher
	stop    context.CancelFunc
	done    chan struct{}
}

type key struct {
	name     string
	locale   string
	encoding string
}

// slot holds the compiled template for one key.  The first goroutine to
// install a slot for a key computes it; mu serializes compiles of that key
// only.
type slot struct {
	mu   sync.Mutex
	tmpl atomic.Pointer[Template]
}

// GetTemplate returns the named template in the configured locale and
// encoding.
func (e *Engine) GetTemplate(name string) (*Template, error) {
	return e.GetLocalizedTemplate(name, e.locale, e.encoding)
}

// GetLocalizedTemplate returns the named template, compiling it on first use.
// The loader falls back to less specific locales when the exact one does not
// exist.  An empty encoding uses the configured one.
//
// With reload enabled, the resource's modification time is checked on every
// call and the template is recompiled when it is newer than the cached one.
func (e *Engine) GetLocalizedTemplate(name string, locale language.Tag, encoding string) (*Template, error) {
	name = normalize(name)
	if encoding == "" {
		encoding = e.encoding
	}
	var k = key{name, locale.String(), encoding}
	var v, _ = e.cache.LoadOrStore(k, new(slot))
	var s = v.(*slot)

	var cached = s.tmpl.Load()
	if cached != nil {
		if !e.reload {
			return cached, nil
		}
		var modified, err = e.loader.LastModified(name, locale)
		if err != nil {
			return nil, err
		}
		if !modified.After(cached.LastModified) {
			return cached, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have compiled it while we waited.
	if current := s.tmpl.Load(); current != cached {
		return current, nil
	}
	var tmpl, err = e.compile(name, locale, encoding)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		e.logger.Info("template reloaded", "name", name, "locale", k.locale)
	}
	s.tmpl.Store(tmpl)
	return tmpl, nil
}

func (e *Engine) compile(name string, locale language.Tag, encoding string) (*Template, error) {
	var start = time.Now()
	var res, err = e.loader.Load(name, locale, encoding)
	if err != nil {
		return nil, err
	}
	tmpl, err := e.parse(res.Name, res.Source)
	if err != nil {
		return nil, err
	}
	tmpl.Locale = locale
	tmpl.Encoding = res.Encoding
	tmpl.LastModified = res.LastModified
	tmpl.path = res.Path

	if e.watcher != nil && res.Path != "" {
		if err := e.watcher.Add(res.Path); err != nil {
			e.logger.Warn("template not watched", "file", res.Path, "error", err)
		}
	}
	e.logger.Debug("template compiled",
		"name", res.Name, "locale", locale.String(), "duration", time.Since(start))
	return tmpl, nil
}

// ParseTemplate parses source as a template of the engine, without caching
// it.
func (e *Engine) ParseTemplate(name, source string) (*Template, error) {
	var tmpl, err = e.parse(name, source)
	if err != nil {
		return nil, err
	}
	tmpl.Locale = e.locale
	tmpl.Encoding = e.encoding
	return tmpl, nil
}

func (e *Engine) parse(name, source string) (*Template, error) {
	var parsed, err = template.Parse(name, source, e.opts)
	if err != nil {
		return nil, err
	}
	var tmpl = &Template{Template: parsed, engine: e}
	if e.backend == config.BackendJavaScript {
		if tmpl.program, err = jsbackend.Compile(parsed); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

// Store returns the engine's global store.  Values set in it are visible to
// every template, behind any names the template defines itself.
func (e *Engine) Store() *resolver.Store {
	return &e.store
}

// evict drops every cached template read from the given file.
func (e *Engine) evict(filename string) {
	filename = filepath.Clean(filename)
	e.cache.Range(func(k, v interface{}) bool {
		if e.evictSlot(k.(key), v.(*slot), filename) {
			e.logger.Info("template evicted", "name", k.(key).name, "file", filename)
		}
		return true
	})
}

// evictSlot removes s if its template was read from filename and s is still
// the slot cached under k.
func (e *Engine) evictSlot(k key, s *slot, filename string) bool {
	var t = s.tmpl.Load()
	return t != nil && t.path == filename && e.cache.CompareAndDelete(k, s)
}

// Close stops watching template files.
func (e *Engine) Close() error {
	if e.watcher == nil {
		return nil
	}
	e.stop()
	var err = e.watcher.Close()
	<-e.done
	return err
}

// normalize cleans a template name to a slash-separated path with no leading
// slash, so that "a/../b" and "/b" share a cache entry.
func normalize(name string) string {
	return path.Clean("/" + name)[1:]
}
