package hashtpl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robfig/hashtpl/config"
	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/filter"
	"github.com/robfig/hashtpl/loader"
	"github.com/robfig/hashtpl/parse"
	"github.com/robfig/hashtpl/render"
	"github.com/robfig/hashtpl/resolver"
)

// Logger is used to print notifications and compile errors when using the
// "WatchFiles" feature, and template compiles at debug level.  Builder.Logger
// overrides it for one engine.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "hashtpl")

// Builder collects the collaborators of an Engine.  Its methods record the
// first error encountered, which Build returns.
type Builder struct {
	cfg         *config.Config
	loaders     []loader.Loader
	resolvers   []resolver.Resolver
	formatter   filter.Formatter
	textFilter  filter.Filter
	valueFilter filter.Filter
	funcs       map[string]render.Func
	globals     data.Map
	logger      *slog.Logger
	watch       bool
	err         error
}

// NewBuilder returns a builder for the given configuration.  A nil
// configuration uses config.Default().
func NewBuilder(cfg *config.Config) *Builder {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Builder{
		cfg:     cfg,
		funcs:   make(map[string]render.Func),
		globals: make(data.Map),
		watch:   cfg.Watch,
	}
}

// Loader adds a template loader.  Loaders are consulted in the order they
// were added; without any, templates are read from the configured directory.
func (b *Builder) Loader(l loader.Loader) *Builder {
	b.loaders = append(b.loaders, l)
	return b
}

// Resolver adds a resolver consulted for names a template does not define.
// Added resolvers take precedence over the configured ones.
func (b *Builder) Resolver(r resolver.Resolver) *Builder {
	b.resolvers = append(b.resolvers, r)
	return b
}

func (b *Builder) Formatter(f filter.Formatter) *Builder {
	b.formatter = f
	return b
}

// TextFilter replaces the configured filter for literal template text.
func (b *Builder) TextFilter(f filter.Filter) *Builder {
	b.textFilter = f
	return b
}

// ValueFilter replaces the configured filter for ${} output.
func (b *Builder) ValueFilter(f filter.Filter) *Builder {
	b.valueFilter = f
	return b
}

// Func makes fn callable by name from every template, in addition to the
// builtin functions.  It shadows a builtin of the same name.
func (b *Builder) Func(name string, fn render.Func) *Builder {
	if fn.Apply == nil {
		b.err = fmt.Errorf("function %q has no implementation", name)
		return b
	}
	b.funcs[name] = fn
	return b
}

func (b *Builder) Logger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WatchFiles tells the engine to watch the template files it loads and evict
// them from its cache when they change.
func (b *Builder) WatchFiles(watch bool) *Builder {
	b.watch = watch
	return b
}

// GlobalsFile reads globals from the given file.  Files ending in .yaml or
// .yml are read as a YAML mapping, anything else as lines of the form
// described by ParseGlobals.
func (b *Builder) GlobalsFile(filename string) *Builder {
	if b.err != nil {
		return b
	}
	var globals data.Map
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		var m, err = resolver.YAMLFile(filename)
		if err != nil {
			b.err = err
			return b
		}
		globals = data.Map(m)
	default:
		var f, err = os.Open(filename)
		if err != nil {
			b.err = err
			return b
		}
		globals, err = ParseGlobals(f)
		f.Close()
		if err != nil {
			b.err = fmt.Errorf("%s: %w", filename, err)
			return b
		}
	}
	return b.Globals(globals)
}

// Globals adds the given values to the globals visible to every template.
func (b *Builder) Globals(globals data.Map) *Builder {
	for k, v := range globals {
		if existing, ok := b.globals[k]; ok {
			b.err = fmt.Errorf("global %q already defined as %q", k, existing)
			return b
		}
		b.globals[k] = v
	}
	return b
}

// Build validates the configuration and returns the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}
	var cfg = b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Globals.File != "" {
		if b.GlobalsFile(cfg.Globals.File); b.err != nil {
			return nil, b.err
		}
	}

	var locale, _ = cfg.Locale()
	var e = &Engine{
		locale:   locale,
		encoding: cfg.Template.Encoding,
		reload:   cfg.Reload,
		backend:  cfg.Backend,
		opts:     parse.Options{Keywords: cfg.Keywords},
		logger:   b.logger,
	}
	if e.logger == nil {
		e.logger = Logger
	}

	switch len(b.loaders) {
	case 0:
		e.loader = loader.NewFiles(cfg.Template.Directory, cfg.Template.Suffix, cfg.Template.Encoding)
	case 1:
		e.loader = b.loaders[0]
	default:
		e.loader = loader.Chain(b.loaders...)
	}

	var env, err = b.env()
	if err != nil {
		return nil, err
	}
	e.env = env

	if e.resolvers, err = b.resolverChain(e); err != nil {
		return nil, err
	}

	if b.watch {
		if e.watcher, err = loader.NewWatcher(e.logger); err != nil {
			return nil, err
		}
		var ctx, cancel = context.WithCancel(context.Background())
		e.stop = cancel
		e.done = make(chan struct{})
		go func() {
			defer close(e.done)
			e.watcher.Run(ctx, e.evict)
		}()
	}
	return e, nil
}

func (b *Builder) env() (*render.Env, error) {
	var cfg = b.cfg
	var env = &render.Env{
		Formatter:   b.formatter,
		TextFilter:  b.textFilter,
		ValueFilter: b.valueFilter,
		MaxDepth:    cfg.Limits.MaxDepth,
		StatusName:  cfg.Loop.Status,
	}
	if env.Formatter == nil {
		if cfg.Output.Localize {
			var tag, _ = cfg.Locale()
			env.Formatter = filter.Locale{Tag: tag, Null: cfg.Output.NullText}
		} else {
			env.Formatter = filter.Default{Null: cfg.Output.NullText}
		}
	}
	if env.TextFilter == nil && cfg.Output.Compress {
		env.TextFilter = filter.CompressBlank
	}
	if env.ValueFilter == nil {
		var f, err = filter.Named(cfg.Output.Escape)
		if err != nil {
			return nil, err
		}
		env.ValueFilter = f
	}
	if len(b.funcs) > 0 {
		env.Funcs = make(map[string]render.Func, len(render.Funcs)+len(b.funcs))
		for name, fn := range render.Funcs {
			env.Funcs[name] = fn
		}
		for name, fn := range b.funcs {
			env.Funcs[name] = fn
		}
	}
	return env, nil
}

// resolverChain orders the root resolvers: added resolvers, the engine's
// store, globals, properties, messages, then HASHTPL_ environment variables.
func (b *Builder) resolverChain(e *Engine) ([]resolver.Resolver, error) {
	var cfg = b.cfg
	var chain = append([]resolver.Resolver(nil), b.resolvers...)
	chain = append(chain, &e.store)
	if len(b.globals) > 0 {
		chain = append(chain, resolver.Map(b.globals))
	}
	if len(cfg.Properties) > 0 {
		var props = make(resolver.Map, len(cfg.Properties))
		for k, v := range cfg.Properties {
			props[k] = data.String(v)
		}
		chain = append(chain, props)
	}
	if cfg.Messages.Directory != "" {
		var catalog, err = resolver.LoadCatalog(cfg.Messages.Directory, e.locale)
		if err != nil {
			return nil, err
		}
		chain = append(chain, resolver.Messages{Name: MessagesName, Catalog: catalog})
	}
	chain = append(chain, resolver.Env{Prefix: config.EnvPrefix + "_"})
	return chain, nil
}

// MessagesName is the name the message catalog is visible under, when
// messages.directory is configured.
const MessagesName = "messages"
