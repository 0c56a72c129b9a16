package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var portalID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run the reconciler once for one portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.configPath, true, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := runContext(cmd, a.cfg.Sync.RunTimeout)
			defer cancel()

			result, err := a.syncer.Sync(ctx, portalID)
			if err != nil {
				return fmt.Errorf("sync portal: %w", err)
			}

			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"success":     true,
				"totalItems":  result.Published,
				"admitted":    result.Admitted,
				"failed":      result.Failed,
				"rejected":    result.Rejected,
				"elapsedTime": result.Duration.Milliseconds(),
				"runLogId":    result.RunLogID,
			})
		},
	}

	cmd.Flags().StringVar(&portalID, "portal", "", "portal ID")
	_ = cmd.MarkFlagRequired("portal")

	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var portalID string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Dry-run a portal's filters on a catalog sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.configPath, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := runContext(cmd, a.cfg.Sync.RunTimeout)
			defer cancel()

			report, err := a.checker.Validate(ctx, portalID)
			if err != nil {
				return fmt.Errorf("validate portal: %w", err)
			}

			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"valid":      report.Valid,
				"totalItems": report.TotalItems,
				"warnings":   report.Warnings,
				"preview":    report.Preview,
				"config":     report.Config,
			})
		},
	}

	cmd.Flags().StringVar(&portalID, "portal", "", "portal ID")
	_ = cmd.MarkFlagRequired("portal")

	return cmd
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write a portal's feed to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.configPath, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := runContext(cmd, a.cfg.Sync.RunTimeout)
			defer cancel()

			portal, err := a.portals.GetBySlug(ctx, slug)
			if err != nil {
				return fmt.Errorf("get portal: %w", err)
			}

			doc, err := a.feeds.Render(ctx, portal.Slug, portal.FeedToken)
			if err != nil {
				return fmt.Errorf("render feed: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(doc.Body)
			return err
		},
	}

	cmd.Flags().StringVar(&slug, "portal", "", "portal slug")
	_ = cmd.MarkFlagRequired("portal")

	return cmd
}

func runContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
