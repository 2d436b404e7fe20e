package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/sharp/csharp/parser"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and the newest supported language version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sharp %s (C# %s)\n", version, parser.LatestLanguageVersion)
		},
	}
}
