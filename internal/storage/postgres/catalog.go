package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"portal_syndicator/internal/domain"
)

// CatalogStore reads the tenant's property catalog. It never writes.
type CatalogStore struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewCatalogStore(db *sqlx.DB) *CatalogStore {
	return &CatalogStore{db: db, tx: NewTransactionManager(db)}
}

// FetchCatalog returns the tenant's properties with their images in retrieval
// order. limit <= 0 means the whole catalog.
func (s *CatalogStore) FetchCatalog(ctx context.Context, tenantID string, limit int) ([]domain.Property, error) {
	var properties []domain.Property

	err := s.tx.WithTransaction(ctx, ReadSnapshot, func(txCtx context.Context) error {
		var err error
		properties, err = s.selectProperties(txCtx, tenantID, limit)
		if err != nil {
			return fmt.Errorf("select properties: %w", err)
		}
		if err := s.attachImages(txCtx, properties); err != nil {
			return fmt.Errorf("select images: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return properties, nil
}

func (s *CatalogStore) selectProperties(ctx context.Context, tenantID string, limit int) ([]domain.Property, error) {
	query := `
		SELECT id, tenant_id, reference_code, title, slug, description,
			price, condo_fee, property_tax, for_sale, for_rent, status,
			property_type, profile, street, street_number, complement,
			neighborhood, city, state, postal_code, bedrooms, bathrooms,
			suites, parking_spaces, area, total_area, featured, updated_at
		FROM properties
		WHERE tenant_id = $1
		ORDER BY featured DESC, updated_at DESC, id`
	args := []interface{}{tenantID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var properties []domain.Property
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &properties, query, args...)
	return properties, err
}

func (s *CatalogStore) attachImages(ctx context.Context, properties []domain.Property) error {
	if len(properties) == 0 {
		return nil
	}

	ids := make([]string, len(properties))
	index := make(map[string]int, len(properties))
	for i, p := range properties {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query := `
		SELECT property_id, url, sort_order, caption
		FROM property_images
		WHERE property_id = ANY($1::uuid[])
		ORDER BY property_id, id`

	var images []domain.Image
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &images, query, pq.Array(ids)); err != nil {
		return err
	}

	for _, img := range images {
		if i, ok := index[img.PropertyID]; ok {
			properties[i].Images = append(properties[i].Images, img)
		}
	}
	return nil
}
