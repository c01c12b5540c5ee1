// Package config holds engine configuration, loaded with viper from defaults,
// an optional config file, and HASHTPL_ environment variables.
//
// Environment variables follow the key path: template.locale is read from
// HASHTPL_TEMPLATE_LOCALE and limits.maxDepth from HASHTPL_LIMITS_MAXDEPTH.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/filter"
	"github.com/robfig/hashtpl/parse"
)

// EnvPrefix prefixes the environment variables that override configuration.
const EnvPrefix = "HASHTPL"

// Backends that can render a template.
const (
	BackendInterpreter = "interpreter"
	BackendJavaScript  = "javascript"
)

type Config struct {
	Template   TemplateConfig    `mapstructure:"template"`
	Reload     bool              `mapstructure:"reload"`
	Watch      bool              `mapstructure:"watch"`
	Backend    string            `mapstructure:"backend"`
	Output     OutputConfig      `mapstructure:"output"`
	Loop       LoopConfig        `mapstructure:"loop"`
	Limits     LimitsConfig      `mapstructure:"limits"`
	Messages   MessagesConfig    `mapstructure:"messages"`
	Globals    GlobalsConfig     `mapstructure:"globals"`
	Properties map[string]string `mapstructure:"properties"`
	Keywords   parse.Keywords    `mapstructure:"keywords"`
}

type TemplateConfig struct {
	Directory string `mapstructure:"directory"`
	Suffix    string `mapstructure:"suffix"`
	Locale    string `mapstructure:"locale"`
	Encoding  string `mapstructure:"encoding"`
}

type OutputConfig struct {
	NullText string `mapstructure:"nullText"` // printed for null and undefined values
	Escape   string `mapstructure:"escape"`
	Compress bool   `mapstructure:"compress"`
	Localize bool   `mapstructure:"localize"`
}

type LoopConfig struct {
	Status string `mapstructure:"status"`
}

type LimitsConfig struct {
	MaxDepth int `mapstructure:"maxDepth"`
}

type MessagesConfig struct {
	Directory string `mapstructure:"directory"`
}

type GlobalsConfig struct {
	File string `mapstructure:"file"`
}

// New returns a viper instance with the defaults set and environment
// overrides enabled.
func New() *viper.Viper {
	var v = viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.  Registering them is
// also what lets AutomaticEnv find keys that no config file sets.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("template.directory", ".")
	v.SetDefault("template.suffix", ".httl")
	v.SetDefault("template.locale", "")
	v.SetDefault("template.encoding", "UTF-8")
	v.SetDefault("reload", false)
	v.SetDefault("watch", false)
	v.SetDefault("backend", BackendInterpreter)
	v.SetDefault("output.nullText", "")
	v.SetDefault("output.escape", "none")
	v.SetDefault("output.compress", false)
	v.SetDefault("output.localize", false)
	v.SetDefault("loop.status", "status")
	v.SetDefault("limits.maxDepth", 100)
	v.SetDefault("messages.directory", "")
	v.SetDefault("globals.file", "")
	v.SetDefault("properties", map[string]string{})
	v.SetDefault("keywords.if", parse.DefaultKeywords.If)
	v.SetDefault("keywords.elseif", parse.DefaultKeywords.ElseIf)
	v.SetDefault("keywords.else", parse.DefaultKeywords.Else)
	v.SetDefault("keywords.end", parse.DefaultKeywords.End)
	v.SetDefault("keywords.for", parse.DefaultKeywords.For)
	v.SetDefault("keywords.break", parse.DefaultKeywords.Break)
	v.SetDefault("keywords.set", parse.DefaultKeywords.Set)
	v.SetDefault("keywords.var", parse.DefaultKeywords.Var)
	v.SetDefault("keywords.macro", parse.DefaultKeywords.Macro)
}

// Default returns the configuration with every key at its default.
func Default() *Config {
	var c, err = Load(New())
	if err != nil {
		panic(err)
	}
	return c
}

// ReadFile returns the configuration from filename, with defaults and
// environment overrides applied.
func ReadFile(filename string) (*Config, error) {
	var v = New()
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", filename, err)
	}
	return Load(v)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the values that can not be checked by decoding alone.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendInterpreter, BackendJavaScript:
	default:
		return fmt.Errorf("backend: unknown backend %q", c.Backend)
	}
	if _, err := filter.Named(c.Output.Escape); err != nil {
		return fmt.Errorf("output.escape: %w", err)
	}
	if _, err := c.Locale(); err != nil {
		return fmt.Errorf("template.locale: %w", err)
	}
	if c.Limits.MaxDepth <= 0 {
		return fmt.Errorf("limits.maxDepth: must be positive, got %d", c.Limits.MaxDepth)
	}
	if c.Loop.Status == "" {
		return fmt.Errorf("loop.status: must not be empty")
	}
	return nil
}

// Locale returns the default template locale.
func (c *Config) Locale() (language.Tag, error) {
	if c.Template.Locale == "" {
		return language.Und, nil
	}
	return language.Parse(c.Template.Locale)
}
