package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portal_syndicator/internal/config"
	"portal_syndicator/internal/domain"
	"portal_syndicator/internal/feed"
	"portal_syndicator/internal/filter"
	"portal_syndicator/internal/metrics"
)

// FeedService serves the pull feed: token check, catalog read, filters and
// rendering in the portal's format.
type FeedService struct {
	portals  PortalStore
	catalog  CatalogReader
	engine   *filter.Engine
	siteURL  string
	provider domain.Contact
	logger   *slog.Logger
	now      func() time.Time
}

func NewFeedService(
	portals PortalStore,
	catalog CatalogReader,
	logger *slog.Logger,
	server config.ServerConfig,
	cfg config.FeedConfig,
) *FeedService {
	return &FeedService{
		portals:  portals,
		catalog:  catalog,
		engine:   filter.NewEngine(),
		siteURL:  server.SiteURL,
		provider: domain.Contact{Name: cfg.ProviderName},
		logger:   logger.With("component", "feed"),
		now:      time.Now,
	}
}

func (s *FeedService) Render(ctx context.Context, slug, token string) (*feed.Document, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || token == "" {
		return nil, fmt.Errorf("%w: portal and token are required", domain.ErrInvalidInput)
	}

	portal, err := s.portals.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrPortalNotFound):
		metrics.RecordFeedRender("not_found", 0, 0)
		return nil, err
	case errors.Is(err, domain.ErrInvalidFilterConfig):
		metrics.RecordFeedRender("error", 0, 0)
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	case err != nil:
		metrics.RecordFeedRender("error", 0, 0)
		return nil, fmt.Errorf("get portal: %w: %w", domain.ErrUpstream, err)
	}

	if !portal.Active {
		metrics.RecordFeedRender("not_found", 0, 0)
		return nil, fmt.Errorf("%w: %s", domain.ErrPortalNotFound, slug)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(portal.FeedToken)) != 1 {
		s.logger.Warn("feed token mismatch", "portal", portal.Slug)
		metrics.RecordFeedRender("unauthorized", 0, 0)
		return nil, domain.ErrFeedUnauthorized
	}

	logger := s.logger.With("portal_id", portal.ID, "portal", portal.Slug)

	properties, err := s.catalog.FetchCatalog(ctx, portal.TenantID, 0)
	if err != nil {
		metrics.RecordFeedRender("error", 0, 0)
		return nil, fmt.Errorf("fetch catalog: %w: %w", domain.ErrUpstream, err)
	}

	formatter, err := feed.ForFormat(portal.Format)
	if err != nil {
		metrics.RecordFeedRender("error", 0, 0)
		return nil, fmt.Errorf("select formatter: %w", err)
	}

	evaluation := s.engine.Evaluate(portal.Filters, properties)

	provider := portal.Contact
	if provider.Name == "" {
		provider.Name = s.provider.Name
	}

	opts := feed.OptionsFromFilters(portal.Filters, s.siteURL, provider, s.now().UTC())
	doc, err := formatter.Render(evaluation.Admitted, opts)
	if err != nil {
		metrics.RecordFeedRender("error", 0, 0)
		return nil, fmt.Errorf("render feed: %w", err)
	}

	for _, skipped := range doc.Skipped {
		logger.Warn("listing skipped from feed", "property_id", skipped.PropertyID, "reason", skipped.Reason)
	}

	metrics.RecordFeedRender("success", doc.Items, len(doc.Skipped))

	logger.Info("feed rendered",
		"candidates", len(properties),
		"items", doc.Items,
		"skipped", len(doc.Skipped),
	)

	return doc, nil
}
