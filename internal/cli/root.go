// Package cli implements the assistant command line: a terminal chat and a
// document ingest command.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/config"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/logging"
)

// NewRootCmd builds the command tree. Config is loaded when a command runs.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "assistant",
		Short: "Chat with the document assistant and book callbacks",
		Long: `assistant answers questions from ingested documents and collects
appointment details when you ask it to call you.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	logger := func(cmd *cobra.Command, cfg config.Config) *slog.Logger {
		if !verbose {
			return logging.Discard()
		}
		return logging.NewWithWriter(cmd.ErrOrStderr(), "assistant", cfg.Env)
	}

	root.AddCommand(newChatCmd(logger), newIngestCmd(logger))
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

type loggerFunc func(cmd *cobra.Command, cfg config.Config) *slog.Logger
