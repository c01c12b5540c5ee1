package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robfig/hashtpl/parse"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the tokens the scanner finds in a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src, err = os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tokens, err := parse.Scan(string(src))
			var out = cmd.OutOrStdout()
			for _, tok := range tokens {
				fmt.Fprintf(out, "%5d  %-13s  %q\n", tok.Offset, tok.Kind, tok.Text)
			}
			return err
		},
	}
}
