package main

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/sharp/csharp/grammar"
)

func newGrammarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Lexical grammar tools",
	}

	cmd.AddCommand(newGrammarShowCmd())
	cmd.AddCommand(newGrammarCheckCmd())
	cmd.AddCommand(newGrammarLexCmd())

	return cmd
}

func newGrammarShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the built-in lexical grammar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(grammar.Source())
			return err
		},
	}
}

func newGrammarCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse and verify an EBNF grammar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := grammar.Load(args[0]); err != nil {
				printErrors(cmd.OutOrStdout(), errors.Unwrap(err))
				return errDiagnostics
			}
			return nil
		},
	}
}

func newGrammarLexCmd() *cobra.Command {
	var grammarFile string

	cmd := &cobra.Command{
		Use:   "lex <file>",
		Short: "Tokenize a file with the grammar-driven reference lexer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g ebnf.Grammar
			var err error
			if grammarFile != "" {
				g, err = grammar.Load(grammarFile)
			} else {
				g, err = grammar.Lexical()
			}
			if err != nil {
				return err
			}
			data, err := readSource(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tok := range grammar.NewLexer(g, data, args[0]).Tokenize() {
				fmt.Fprintln(out, tok)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&grammarFile, "grammar", "", "use this grammar file instead of the built-in one")

	return cmd
}

// printErrors prints each error of an ebnf error list on its own line.
func printErrors(w io.Writer, err error) {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, v.Index(i).Interface())
		}
	} else {
		fmt.Fprintln(w, err)
	}
}
