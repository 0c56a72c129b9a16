package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "syndicator",
		Short: "Real-estate portal syndication pipeline",
		Long: `syndicator publishes a tenant's property catalog to real-estate portals.

It serves the pull feed portals download, reconciles the publication ledger
on demand or on a schedule, and validates portal filter configurations.

Example usage:
  syndicator serve                                # HTTP API and scheduler
  syndicator sync --portal <uuid>                 # one reconciler run
  syndicator validate --portal <uuid>             # dry run, prints the report
  syndicator render --portal zap-imoveis > feed.xml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newSyncCmd(opts),
		newValidateCmd(opts),
		newRenderCmd(opts),
	)

	return cmd
}

// setupLogger writes JSON logs to w. One-shot commands log to stderr so their
// stdout stays machine-readable.
func setupLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}
