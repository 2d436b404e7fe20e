package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/sharp/csharp/codebase"
)

func newCheckCmd() *cobra.Command {
	var flags configFlags
	var warningsAsErrors bool

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Report syntax diagnostics for C# files and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}

			var paths []string
			for _, arg := range args {
				st, err := os.Stat(arg)
				if err != nil {
					return err
				}
				if !st.IsDir() {
					paths = append(paths, arg)
					continue
				}
				files, err := codebase.SourceFiles(arg, cfg)
				if err != nil {
					return err
				}
				paths = append(paths, files...)
			}

			cb := codebase.New(".", cfg)
			if err := cb.ScanFiles(cmd.Context(), paths); err != nil {
				return err
			}

			for _, f := range cb.Files() {
				printDiagnostics(cmd.OutOrStdout(), f)
			}

			s := cb.Summary()
			fmt.Fprintf(cmd.ErrOrStderr(), "%d files, %d errors, %d warnings\n", s.Files, s.Errors, s.Warnings)
			if s.Errors > 0 || (warningsAsErrors && s.Warnings > 0) {
				return errDiagnostics
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&warningsAsErrors, "warnings-as-errors", false, "fail when any warning is reported")

	return cmd
}

// printDiagnostics writes the diagnostics of one file in compiler format.
func printDiagnostics(w io.Writer, f *codebase.FileInfo) {
	for _, d := range f.Diagnostics {
		fmt.Fprintln(w, d)
	}
}
