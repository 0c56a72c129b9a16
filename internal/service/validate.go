package service

import (
	"context"
	"fmt"
	"log/slog"

	"portal_syndicator/internal/config"
	"portal_syndicator/internal/domain"
	"portal_syndicator/internal/filter"
)

var warningMessages = map[domain.Reason]string{
	domain.ReasonMissingPrice:       "%d imóveis sem preço",
	domain.ReasonMissingPhotos:      "%d imóveis sem fotos",
	domain.ReasonMissingDescription: "%d imóveis sem descrição",
	domain.ReasonMissingAddress:     "%d imóveis sem endereço",
	domain.ReasonFilteredOut:        "%d imóveis excluídos pelos filtros configurados",
}

// ValidationService runs a portal's read path on a bounded sample and
// reports what a sync would publish. It never writes.
type ValidationService struct {
	portals PortalStore
	catalog CatalogReader
	engine  *filter.Engine
	logger  *slog.Logger
	config  config.ValidationConfig
}

func NewValidationService(
	portals PortalStore,
	catalog CatalogReader,
	logger *slog.Logger,
	cfg config.ValidationConfig,
) *ValidationService {
	return &ValidationService{
		portals: portals,
		catalog: catalog,
		engine:  filter.NewEngine(),
		logger:  logger.With("component", "validator"),
		config:  cfg,
	}
}

func (s *ValidationService) Validate(ctx context.Context, portalID string) (*domain.ValidationReport, error) {
	portal, err := loadPortal(ctx, s.portals, portalID)
	if err != nil {
		return nil, err
	}

	properties, err := s.catalog.FetchCatalog(ctx, portal.TenantID, s.config.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w: %w", domain.ErrUpstream, err)
	}

	evaluation := s.engine.Evaluate(portal.Filters, properties)
	warnings := buildWarnings(evaluation.CountByReason())

	report := &domain.ValidationReport{
		Valid:      isValid(warnings),
		TotalItems: len(evaluation.Admitted),
		Warnings:   warnings,
		Preview:    buildPreview(evaluation.Admitted, s.config.PreviewSize),
		Config:     portal.Filters,
	}

	s.logger.Info("validation completed",
		"portal_id", portal.ID,
		"portal", portal.Slug,
		"sampled", len(properties),
		"admitted", report.TotalItems,
		"warnings", len(warnings),
		"valid", report.Valid,
	)

	return report, nil
}

func buildWarnings(counts map[domain.Reason]int) []domain.Warning {
	warnings := make([]domain.Warning, 0, len(counts))
	for _, reason := range domain.Reasons {
		n := counts[reason]
		if n == 0 {
			continue
		}
		warnings = append(warnings, domain.Warning{
			Code:    reason,
			Count:   n,
			Message: fmt.Sprintf(warningMessages[reason], n),
		})
	}
	return warnings
}

// isValid treats exclusions by configured filters as expected behavior, not
// as a data quality problem.
func isValid(warnings []domain.Warning) bool {
	for _, w := range warnings {
		if w.Code != domain.ReasonFilteredOut {
			return false
		}
	}
	return true
}

func buildPreview(admitted []domain.Property, size int) []domain.PreviewItem {
	if size > len(admitted) {
		size = len(admitted)
	}
	preview := make([]domain.PreviewItem, 0, size)
	for i := 0; i < size; i++ {
		p := &admitted[i]
		preview = append(preview, domain.PreviewItem{
			ID:            p.ID,
			ReferenceCode: p.ReferenceCode,
			Title:         p.Title,
			Price:         p.Price,
			PhotoCount:    len(p.Images),
			Transaction:   p.Transaction(),
		})
	}
	return preview
}
