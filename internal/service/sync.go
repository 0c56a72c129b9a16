package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"portal_syndicator/internal/config"
	"portal_syndicator/internal/domain"
	"portal_syndicator/internal/filter"
	"portal_syndicator/internal/metrics"
)

type SyncService struct {
	portals      PortalStore
	catalog      CatalogReader
	publications PublicationStore
	runLogs      RunLogStore
	publisher    Publisher
	engine       *filter.Engine
	links        FeedLinks
	logger       *slog.Logger
	config       config.SyncConfig
	now          func() time.Time
}

func NewSyncService(
	portals PortalStore,
	catalog CatalogReader,
	publications PublicationStore,
	runLogs RunLogStore,
	publisher Publisher,
	links FeedLinks,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	if cfg.UpsertConcurrency < 1 {
		cfg.UpsertConcurrency = 1
	}
	if cfg.PortalConcurrency < 1 {
		cfg.PortalConcurrency = 1
	}
	return &SyncService{
		portals:      portals,
		catalog:      catalog,
		publications: publications,
		runLogs:      runLogs,
		publisher:    publisher,
		engine:       filter.NewEngine(),
		links:        links,
		logger:       logger.With("component", "reconciler"),
		config:       cfg,
		now:          time.Now,
	}
}

// Sync reconciles the publication ledger of one portal with its current
// admitted set. Records of properties that left the admitted set are not
// touched.
func (s *SyncService) Sync(ctx context.Context, portalID string) (*domain.SyncResult, error) {
	startTime := s.now()

	portal, err := loadPortal(ctx, s.portals, portalID)
	if err != nil {
		return nil, err
	}
	if !portal.Active {
		return nil, fmt.Errorf("%w: portal %s is inactive", domain.ErrInvalidInput, portal.Slug)
	}

	logger := s.logger.With("portal_id", portal.ID, "portal", portal.Slug)
	logger.Info("starting sync", "tenant_id", portal.TenantID)

	properties, err := s.catalog.FetchCatalog(ctx, portal.TenantID, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w: %w", domain.ErrUpstream, err)
	}

	logger.Info("fetched catalog", "count", len(properties))

	evaluation := s.engine.Evaluate(portal.Filters, properties)
	rejected := evaluation.RejectedByReason()

	logger.Info("filters applied",
		"admitted", len(evaluation.Admitted),
		"business_excluded", evaluation.BusinessExcluded(),
		"completeness_excluded", evaluation.CompletenessExcluded(),
	)

	published, failures := s.upsertAll(ctx, logger, portal.ID, evaluation.Admitted)

	result := &domain.SyncResult{
		PortalID:  portal.ID,
		Admitted:  len(evaluation.Admitted),
		Published: published,
		Failed:    len(failures),
		Rejected:  rejected,
		Errors:    failures,
		FeedURL:   s.links.URL(portal),
	}
	result.Duration = s.now().Sub(startTime)

	status := domain.RunSuccess
	if result.Failed > 0 {
		status = domain.RunPartial
	}

	entry := &domain.RunLog{
		ID:        uuid.NewString(),
		PortalID:  portal.ID,
		Status:    status,
		ItemCount: result.Published,
		Duration:  result.Duration,
		FeedURL:   result.FeedURL,
		Details: domain.RunDetails{
			Filters:  portal.Filters,
			Message:  fmt.Sprintf("%d of %d admitted properties published", result.Published, result.Admitted),
			Admitted: result.Admitted,
			Failed:   result.Failed,
			Rejected: rejected,
			Errors:   failures,
		},
		CreatedAt: s.now(),
	}
	if err := s.runLogs.Append(ctx, entry); err != nil {
		return result, fmt.Errorf("append run log: %w", err)
	}
	result.RunLogID = entry.ID

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, result); err != nil {
			logger.Warn("failed to publish run event", "error", err)
		}
	}

	metrics.RecordSync(string(status), result.Duration.Seconds(), result.Published, result.Failed)
	metrics.RecordRejections(reasonLabels(rejected))

	logger.Info("sync completed",
		"status", status,
		"admitted", result.Admitted,
		"published", result.Published,
		"failed", result.Failed,
		"duration", result.Duration,
	)

	return result, nil
}

// upsertAll writes one ledger record per admitted property. A failed upsert is
// recorded and the remaining properties are still processed.
func (s *SyncService) upsertAll(
	ctx context.Context,
	logger *slog.Logger,
	portalID string,
	admitted []domain.Property,
) (int, []string) {
	var (
		published atomic.Int64
		mu        sync.Mutex
		failures  []string
	)

	attemptAt := s.now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.UpsertConcurrency)

	for i := range admitted {
		p := &admitted[i]
		g.Go(func() error {
			record := &domain.PublicationRecord{
				Key:           domain.PublicationKey{PortalID: portalID, PropertyID: p.ID},
				Status:        domain.PublicationPublished,
				LastAttemptAt: attemptAt,
				Snapshot:      domain.NewPublicationSnapshot(p),
			}

			if err := s.publications.Upsert(gctx, record); err != nil {
				logger.Error("failed to upsert publication", "property_id", p.ID, "error", err)
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", p.ID, err))
				mu.Unlock()
				return nil
			}

			published.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	sort.Strings(failures)
	return int(published.Load()), failures
}

// SyncAll syncs every active auto-sync portal. Different portals run in
// parallel; a failing portal does not stop the others.
func (s *SyncService) SyncAll(ctx context.Context) ([]*domain.SyncResult, error) {
	portals, err := s.portals.ListAutoSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auto-sync portals: %w: %w", domain.ErrUpstream, err)
	}

	results := make([]*domain.SyncResult, len(portals))

	var g errgroup.Group
	g.SetLimit(s.config.PortalConcurrency)

	for i := range portals {
		i := i
		portal := &portals[i]
		g.Go(func() error {
			runCtx := ctx
			if s.config.RunTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
				defer cancel()
			}

			result, err := s.Sync(runCtx, portal.ID)
			if err != nil {
				s.logger.Error("portal sync failed", "portal_id", portal.ID, "portal", portal.Slug, "error", err)
				metrics.SyncRunsTotal.WithLabelValues("error").Inc()
			}
			results[i] = result
			return nil
		})
	}

	_ = g.Wait()

	return results, nil
}

func reasonLabels(counts map[domain.Reason]int) map[string]int {
	out := make(map[string]int, len(counts))
	for reason, n := range counts {
		out[string(reason)] = n
	}
	return out
}
