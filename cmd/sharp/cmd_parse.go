package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/sharp/csharp/parser"
	"github.com/dhamidi/sharp/format"
)

func newParseCmd() *cobra.Command {
	var flags configFlags
	var outputFormat string
	var includePositions bool
	var unit string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a C# file and dump the syntax tree",
		Long: `Parse a C# file, or standard input when the file is "-", and print the
syntax tree with its diagnostics. The tree is produced even for broken input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			filename := args[0]
			data, err := readSource(filename)
			if err != nil {
				return err
			}

			opts := cfg.ParserOptions(filename)
			var p *parser.Parser
			switch unit {
			case "file":
				p = parser.ParseCompilationUnit(bytes.NewReader(data), opts...)
			case "expr":
				p = parser.ParseExpression(bytes.NewReader(data), opts...)
			case "stmt":
				p = parser.ParseStatement(bytes.NewReader(data), opts...)
			default:
				return fmt.Errorf("unknown unit: %s (expected file, expr or stmt)", unit)
			}
			tree, err := p.FinishErr()
			if err != nil {
				return err
			}

			enc, err := format.NewEncoder(outputFormat, cmd.OutOrStdout(), includePositions)
			if err != nil {
				return err
			}
			doc := &format.Document{File: filename, Tree: tree, Diagnostics: p.Diagnostics()}
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encode %s: %w", outputFormat, err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format ("+strings.Join(format.Formats, ", ")+")")
	cmd.Flags().BoolVar(&includePositions, "positions", false, "include node positions in tree output")
	cmd.Flags().StringVar(&unit, "unit", "file", "what the input holds: file, expr or stmt")

	return cmd
}

func readSource(filename string) ([]byte, error) {
	if filename == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
