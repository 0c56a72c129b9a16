package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"portal_syndicator/internal/domain"
)

// RunLogStore is the append-only reconciler run log.
type RunLogStore struct {
	db *sqlx.DB
}

func NewRunLogStore(db *sqlx.DB) *RunLogStore {
	return &RunLogStore{db: db}
}

func (s *RunLogStore) Append(ctx context.Context, entry *domain.RunLog) error {
	details, err := entry.Details.JSON()
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO portal_run_logs (
			id, portal_id, status, item_count, duration_ms, feed_url, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, query,
		entry.ID,
		entry.PortalID,
		entry.Status,
		entry.ItemCount,
		entry.Duration.Milliseconds(),
		entry.FeedURL,
		string(details),
		entry.CreatedAt,
	)
	return err
}

type runLogRow struct {
	ID         string    `db:"id"`
	PortalID   string    `db:"portal_id"`
	Status     string    `db:"status"`
	ItemCount  int       `db:"item_count"`
	DurationMS int64     `db:"duration_ms"`
	FeedURL    string    `db:"feed_url"`
	Details    []byte    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}

// ListByPortal returns the most recent entries first.
func (s *RunLogStore) ListByPortal(ctx context.Context, portalID string, limit int) ([]domain.RunLog, error) {
	query := `
		SELECT id, portal_id, status, item_count, duration_ms, feed_url, details, created_at
		FROM portal_run_logs
		WHERE portal_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`

	var rows []runLogRow
	if err := s.db.SelectContext(ctx, &rows, query, portalID, limit); err != nil {
		return nil, err
	}

	entries := make([]domain.RunLog, 0, len(rows))
	for _, row := range rows {
		entry := domain.RunLog{
			ID:        row.ID,
			PortalID:  row.PortalID,
			Status:    domain.RunStatus(row.Status),
			ItemCount: row.ItemCount,
			Duration:  time.Duration(row.DurationMS) * time.Millisecond,
			FeedURL:   row.FeedURL,
			CreatedAt: row.CreatedAt,
		}
		if err := json.Unmarshal(row.Details, &entry.Details); err != nil {
			return nil, fmt.Errorf("decode details for %s: %w", row.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
