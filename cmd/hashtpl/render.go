package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		dataFile string
		encoding string
	)
	var cmd = &cobra.Command{
		Use:   "render <name>",
		Short: "Render a template to standard output",
		Long: `Render the named template from the template directory.

Variables are read from a YAML mapping given with --data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var vars, err = readVars(dataFile)
			if err != nil {
				return err
			}
			engine, cfg, err := opts.engine()
			if err != nil {
				return err
			}
			defer engine.Close()
			var locale, _ = cfg.Locale()

			tmpl, err := engine.GetLocalizedTemplate(args[0], locale, encoding)
			if err != nil {
				return err
			}
			var w = bufio.NewWriter(cmd.OutOrStdout())
			err = tmpl.Render(w, vars)
			if ferr := w.Flush(); err == nil {
				err = ferr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "YAML file of template variables")
	cmd.Flags().StringVar(&encoding, "encoding", "", "charset of the template file (default from config)")
	return cmd
}

func readVars(filename string) (map[string]interface{}, error) {
	var vars = make(map[string]interface{})
	if filename == "" {
		return vars, nil
	}
	var f, err = os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&vars); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return vars, nil
}
