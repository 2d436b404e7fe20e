package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/sharp/csharp/codebase"
	"github.com/dhamidi/sharp/csharp/parser"
)

var version = "0.1.0"

// errDiagnostics makes the process exit with status 1 after the
// diagnostics were already printed.
var errDiagnostics = errors.New("errors found")

func main() {
	var verbose int
	var logFile string

	rootCmd := &cobra.Command{
		Use:           "sharp",
		Short:         "An error-tolerant C# syntax front end",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, _ := codebase.ConfigFromEnv()
			level := cfg.LogLevel
			if verbose > 0 {
				level = verbose
			}
			path := cfg.LogFile
			if logFile != "" {
				path = logFile
			}
			if path == "" {
				commonlog.Configure(level, nil)
			} else {
				commonlog.Configure(level, &path)
			}
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newTokensCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newGrammarCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintln(os.Stderr, "sharp:", err)
		}
		os.Exit(1)
	}
}

// configFlags binds the parser options shared by several commands. Flags
// that are set override the environment.
type configFlags struct {
	defines     []string
	langVersion string
	workers     int
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.defines, "define", "D", nil, "define a conditional-compilation symbol (repeatable)")
	cmd.Flags().StringVar(&f.langVersion, "langversion", "", "language version for feature checks, e.g. 7.3, 9, latest")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "number of files parsed in parallel")
}

func (f *configFlags) config(cmd *cobra.Command) (codebase.Config, error) {
	cfg, err := codebase.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("define") {
		var defines []string
		for _, d := range f.defines {
			defines = append(defines, codebase.SplitDefines(d)...)
		}
		cfg.Defines = defines
	}
	if cmd.Flags().Changed("langversion") {
		v, err := parser.ParseLanguageVersion(f.langVersion)
		if err != nil {
			return cfg, err
		}
		cfg.LanguageVersion = v
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	return cfg, nil
}
