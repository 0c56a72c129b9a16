package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"portal_syndicator/internal/domain"
)

// PublicationStore is the (portal, property) ledger. Rows are only ever
// written through Upsert, so repeated or concurrent runs converge on one row
// per key.
type PublicationStore struct {
	db *sqlx.DB
}

func NewPublicationStore(db *sqlx.DB) *PublicationStore {
	return &PublicationStore{db: db}
}

func (s *PublicationStore) Upsert(ctx context.Context, record *domain.PublicationRecord) error {
	snapshot, err := json.Marshal(record.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO portal_publications (
			portal_id, property_id, status, last_attempt_at, snapshot
		) VALUES (
			$1, $2, $3, $4, $5
		)
		ON CONFLICT (portal_id, property_id) DO UPDATE SET
			status = EXCLUDED.status,
			last_attempt_at = EXCLUDED.last_attempt_at,
			snapshot = EXCLUDED.snapshot`

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, query,
		record.Key.PortalID,
		record.Key.PropertyID,
		record.Status,
		record.LastAttemptAt,
		string(snapshot),
	)
	return err
}

type publicationRow struct {
	PortalID      string    `db:"portal_id"`
	PropertyID    string    `db:"property_id"`
	Status        string    `db:"status"`
	LastAttemptAt time.Time `db:"last_attempt_at"`
	Snapshot      []byte    `db:"snapshot"`
}

// ListByPortal returns the portal's ledger ordered by property.
func (s *PublicationStore) ListByPortal(ctx context.Context, portalID string) ([]domain.PublicationRecord, error) {
	query := `
		SELECT portal_id, property_id, status, last_attempt_at, snapshot
		FROM portal_publications
		WHERE portal_id = $1
		ORDER BY property_id`

	var rows []publicationRow
	if err := s.db.SelectContext(ctx, &rows, query, portalID); err != nil {
		return nil, err
	}

	records := make([]domain.PublicationRecord, 0, len(rows))
	for _, row := range rows {
		rec := domain.PublicationRecord{
			Key:           domain.PublicationKey{PortalID: row.PortalID, PropertyID: row.PropertyID},
			Status:        domain.PublicationStatus(row.Status),
			LastAttemptAt: row.LastAttemptAt,
		}
		if err := json.Unmarshal(row.Snapshot, &rec.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot for %s: %w", row.PropertyID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
