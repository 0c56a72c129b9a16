package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"portal_syndicator/internal/domain"
)

type PortalStore interface {
	GetByID(ctx context.Context, id string) (*domain.Portal, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Portal, error)
	ListAutoSync(ctx context.Context) ([]domain.Portal, error)
}

// CatalogReader is read-only access to a tenant's properties. limit <= 0
// means the whole catalog.
type CatalogReader interface {
	FetchCatalog(ctx context.Context, tenantID string, limit int) ([]domain.Property, error)
}

type PublicationStore interface {
	Upsert(ctx context.Context, record *domain.PublicationRecord) error
}

type RunLogStore interface {
	Append(ctx context.Context, entry *domain.RunLog) error
}

type Publisher interface {
	Publish(ctx context.Context, result *domain.SyncResult) error
	Close() error
}
