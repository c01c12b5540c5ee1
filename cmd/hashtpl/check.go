package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robfig/hashtpl/loader"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Parse templates and report syntax errors",
		Long: `Parse the given template files, or every template in the template
directory when none are given, and report each error with its position.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var engine, cfg, err = opts.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			var out = cmd.OutOrStdout()
			var checked, failed int
			var report = func(name string, err error) {
				checked++
				if err != nil {
					failed++
					fmt.Fprintln(out, err)
					return
				}
				fmt.Fprintf(out, "ok  %s\n", name)
			}

			if len(args) == 0 {
				var files = loader.NewFiles(cfg.Template.Directory, cfg.Template.Suffix, cfg.Template.Encoding)
				err = files.Walk(func(name string) error {
					var _, err = engine.GetTemplate(name)
					report(name, err)
					return nil
				})
				if err != nil {
					return err
				}
			}
			for _, filename := range args {
				var src, err = os.ReadFile(filename)
				if err != nil {
					report(filename, err)
					continue
				}
				source, err := loader.Decode(filename, src, cfg.Template.Encoding)
				if err == nil {
					_, err = engine.ParseTemplate(filename, source)
				}
				report(filename, err)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d templates failed", failed, checked)
			}
			return nil
		},
	}
}
