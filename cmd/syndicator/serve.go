package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"portal_syndicator/internal/httpserver"
	"portal_syndicator/internal/scheduler"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed, sync and validate API and run the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.configPath, true, os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := httpserver.New(a.feeds, a.syncer, a.checker, a.cfg.Server, a.cfg.Feed, a.logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Start(gctx)
			})

			if a.cfg.Sync.Enabled {
				sched := scheduler.NewScheduler(a.syncer, a.cfg.Sync.Interval, 0, a.logger)
				g.Go(func() error {
					if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}

			a.logger.Info("starting portal syndicator",
				"addr", a.cfg.Server.Addr,
				"catalog_driver", a.cfg.Catalog.Driver,
				"scheduler", a.cfg.Sync.Enabled,
				"interval", a.cfg.Sync.Interval,
			)

			return g.Wait()
		},
	}
}
