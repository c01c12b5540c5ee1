package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"

	"github.com/robfig/hashtpl"
	"github.com/robfig/hashtpl/config"
)

// options are the flags shared by every command.
type options struct {
	configFile string
	logLevel   string
	flags      *pflag.FlagSet
}

func newRootCmd() *cobra.Command {
	var opts = &options{}
	var cmd = &cobra.Command{
		Use:   "hashtpl",
		Short: "Render and check #directive templates",
		Long: `hashtpl renders and checks templates written in the #directive syntax.

Configuration is read from --config, then HASHTPL_* environment variables
(HASHTPL_TEMPLATE_DIRECTORY, HASHTPL_BACKEND, ...), then flags.

Examples:
  hashtpl render page --data vars.yaml
  hashtpl check                      # parse every template in the directory
  hashtpl check a.httl b.httl
  hashtpl tokens page.httl`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			hashtpl.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: level})).With("component", "hashtpl")
			return nil
		},
	}

	opts.flags = cmd.PersistentFlags()
	opts.flags.StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	opts.flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	opts.flags.StringP("dir", "d", "", "template directory")
	opts.flags.String("backend", "", "rendering backend (interpreter, javascript)")
	opts.flags.String("escape", "", "escaping of ${} output (none, html, uri, json, js)")
	opts.flags.String("locale", "", "template locale, e.g. de-DE")

	cmd.AddCommand(newRenderCmd(opts), newCheckCmd(opts), newTokensCmd())
	return cmd
}

// flagKeys binds flags to configuration keys.
var flagKeys = map[string]string{
	"dir":     "template.directory",
	"backend": "backend",
	"escape":  "output.escape",
	"locale":  "template.locale",
}

// config reads the configuration file, if any, with flags taking precedence.
func (o *options) config() (*config.Config, error) {
	var v = config.New()
	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", o.configFile, err)
		}
	}
	bindFlags(v, o.flags)
	return config.Load(v)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	var fold = cases.Fold()
	for name, key := range flagKeys {
		var f = flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		var value = f.Value.String()
		// Keywords are matched case-insensitively.
		if name == "backend" || name == "escape" {
			value = fold.String(value)
		}
		v.Set(key, value)
	}
}

func (o *options) engine() (*hashtpl.Engine, *config.Config, error) {
	var cfg, err = o.config()
	if err != nil {
		return nil, nil, err
	}
	e, err := hashtpl.NewBuilder(cfg).Build()
	return e, cfg, err
}
