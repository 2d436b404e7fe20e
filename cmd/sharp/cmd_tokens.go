package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/dhamidi/sharp/csharp/parser"
	"github.com/dhamidi/sharp/format"
)

func newTokensCmd() *cobra.Command {
	var flags configFlags
	var trivia bool

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "List the tokens of a C# file after preprocessing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			data, err := readSource(args[0])
			if err != nil {
				return err
			}
			p := parser.ParseCompilationUnit(bytes.NewReader(data), cfg.ParserOptions(args[0])...)
			tree, err := p.FinishErr()
			if err != nil {
				return err
			}
			enc := format.NewTokenEncoder(cmd.OutOrStdout())
			enc.Trivia = trivia
			return enc.Encode(&format.Document{File: args[0], Tree: tree})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&trivia, "trivia", false, "also list whitespace, comments and directives")

	return cmd
}
