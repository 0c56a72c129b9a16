package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"portal_syndicator/internal/domain"
)

type PortalStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPortalStore(db *sqlx.DB, logger *slog.Logger) *PortalStore {
	return &PortalStore{db: db, logger: logger.With("component", "portal_store")}
}

type portalRow struct {
	ID           string    `db:"id"`
	TenantID     string    `db:"tenant_id"`
	Name         string    `db:"name"`
	Slug         string    `db:"slug"`
	FeedToken    string    `db:"feed_token"`
	Format       string    `db:"format"`
	Active       bool      `db:"active"`
	AutoSync     bool      `db:"auto_sync"`
	ContactName  string    `db:"contact_name"`
	ContactEmail string    `db:"contact_email"`
	ContactPhone string    `db:"contact_phone"`
	Filters      []byte    `db:"filters"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const portalColumns = `
	id, tenant_id, name, slug, feed_token, format, active, auto_sync,
	contact_name, contact_email, contact_phone, filters, created_at, updated_at`

func (s *PortalStore) GetByID(ctx context.Context, id string) (*domain.Portal, error) {
	return s.getOne(ctx, `SELECT `+portalColumns+` FROM portals WHERE id = $1`, id)
}

func (s *PortalStore) GetBySlug(ctx context.Context, slug string) (*domain.Portal, error) {
	return s.getOne(ctx, `SELECT `+portalColumns+` FROM portals WHERE slug = $1`, slug)
}

// ListAutoSync returns active portals flagged for scheduled synchronization.
// A portal whose filter configuration cannot be parsed is logged and left out
// so the remaining portals still run.
func (s *PortalStore) ListAutoSync(ctx context.Context) ([]domain.Portal, error) {
	var rows []portalRow
	query := `SELECT ` + portalColumns + ` FROM portals WHERE active AND auto_sync ORDER BY id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	portals := make([]domain.Portal, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if errors.Is(err, domain.ErrInvalidFilterConfig) {
			s.logger.Error("skipping auto-sync portal with invalid filters",
				"portal_id", row.ID, "portal", row.Slug, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		portals = append(portals, *p)
	}
	return portals, nil
}

func (s *PortalStore) getOne(ctx context.Context, query string, arg string) (*domain.Portal, error) {
	var row portalRow
	err := s.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPortalNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r portalRow) toDomain() (*domain.Portal, error) {
	filters, err := domain.ParseFilterConfig(r.Filters)
	if err != nil {
		return nil, fmt.Errorf("portal %s: %w", r.ID, err)
	}

	return &domain.Portal{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Slug:      r.Slug,
		FeedToken: r.FeedToken,
		Format:    r.Format,
		Active:    r.Active,
		AutoSync:  r.AutoSync,
		Contact: domain.Contact{
			Name:  r.ContactName,
			Email: r.ContactEmail,
			Phone: r.ContactPhone,
		},
		Filters:   filters,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
