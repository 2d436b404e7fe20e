package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhamidi/sharp/csharp/codebase"
)

func newWatchCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-check C# files whenever they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cb := codebase.New(root, cfg)
			if err := cb.ScanAll(ctx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range cb.Files() {
				printDiagnostics(out, f)
			}
			s := cb.Summary()
			fmt.Fprintf(out, "watching %s: %d files, %d errors, %d warnings\n", root, s.Files, s.Errors, s.Warnings)

			fw, err := codebase.NewFileWatcher(cb)
			if err != nil {
				return err
			}
			errc := make(chan error, 1)
			go func() { errc <- fw.Run(ctx) }()

			for change := range fw.Changes() {
				if change.Info == nil {
					fmt.Fprintf(out, "%s: removed\n", change.Path)
					continue
				}
				printDiagnostics(out, change.Info)
				fmt.Fprintf(out, "%s: %d diagnostics\n", change.Path, len(change.Info.Diagnostics))
			}
			return <-errc
		},
	}

	flags.register(cmd)

	return cmd
}
