package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// verbose is set by the root command's persistent flag and read by every
// subcommand's slog handler (spec.md's ambient stack: "the CLI uses the
// standard library log/slog for its own diagnostics").
var verbose bool

// cmdStdout is where eval/explain/repl write their results; a plain
// package var rather than an io.Writer threaded through every command.
var cmdStdout = os.Stdout

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yamlet",
		Short:         "Evaluate Yamlet documents (YAML with tuple composition and deferred expressions)",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log load timing to stderr")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	root.AddCommand(newEvalCmd())
	root.AddCommand(newExplainCmd())
	root.AddCommand(newReplCmd())
	return root
}
