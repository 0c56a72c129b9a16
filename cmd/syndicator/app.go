package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"portal_syndicator/internal/catalog/rest"
	"portal_syndicator/internal/config"
	"portal_syndicator/internal/publisher"
	"portal_syndicator/internal/service"
	"portal_syndicator/internal/storage/postgres"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqlx.DB
	publisher *publisher.RabbitMQ

	portals *postgres.PortalStore
	syncer  *service.SyncService
	checker *service.ValidationService
	feeds   *service.FeedService
}

// newApp loads configuration and wires the stores and services. withEvents
// connects the run event publisher when it is enabled.
func newApp(configPath string, withEvents bool, logOut io.Writer) (*app, error) {
	logger := setupLogger("info", logOut)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger = setupLogger(cfg.LogLevel, logOut)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	a := &app{cfg: cfg, logger: logger, db: db}

	var events service.Publisher
	if withEvents && cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		a.publisher = rabbitMQ
		events = rabbitMQ
	}

	var catalog service.CatalogReader
	switch cfg.Catalog.Driver {
	case "rest":
		catalog = rest.New(rest.Config{
			BaseURL:        cfg.Catalog.BaseURL,
			APIKey:         cfg.Catalog.APIKey,
			PageSize:       cfg.Catalog.PageSize,
			Timeout:        cfg.Catalog.Timeout,
			MaxAttempts:    cfg.Catalog.Retry.MaxAttempts,
			InitialBackoff: cfg.Catalog.Retry.InitialBackoff,
			MaxBackoff:     cfg.Catalog.Retry.MaxBackoff,
		}, logger)
	default:
		catalog = postgres.NewCatalogStore(db)
	}
	logger.Info("catalog reader configured", "driver", cfg.Catalog.Driver)

	a.portals = postgres.NewPortalStore(db, logger)
	links := service.NewFeedLinks(cfg.Server.PublicBaseURL, cfg.Feed.Path)

	a.syncer = service.NewSyncService(
		a.portals,
		catalog,
		postgres.NewPublicationStore(db),
		postgres.NewRunLogStore(db),
		events,
		links,
		logger,
		cfg.Sync,
	)
	a.checker = service.NewValidationService(a.portals, catalog, logger, cfg.Validation)
	a.feeds = service.NewFeedService(a.portals, catalog, logger, cfg.Server, cfg.Feed)

	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
