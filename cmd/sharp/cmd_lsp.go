package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/sharp/csharp/codebase"
)

func newLSPCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			server := codebase.NewLSPServer(version, cfg)
			return server.RunStdio()
		},
	}

	flags.register(cmd)

	return cmd
}
