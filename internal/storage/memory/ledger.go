// Package memory is an in-process ledger backend. Writes are keyed map
// operations, which is the convergence guarantee every backend must give.
package memory

import (
	"context"
	"sort"
	"sync"

	"portal_syndicator/internal/domain"
)

type Ledger struct {
	mu      sync.RWMutex
	records map[domain.PublicationKey]domain.PublicationRecord
	runs    []domain.RunLog
}

func NewLedger() *Ledger {
	return &Ledger{records: make(map[domain.PublicationKey]domain.PublicationRecord)}
}

func (l *Ledger) Upsert(ctx context.Context, record *domain.PublicationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[record.Key] = *record
	return nil
}

func (l *Ledger) Append(ctx context.Context, entry *domain.RunLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, *entry)
	return nil
}

// Records returns the portal's rows sorted by property ID.
func (l *Ledger) Records(portalID string) []domain.PublicationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.PublicationRecord
	for key, rec := range l.records {
		if key.PortalID == portalID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.PropertyID < out[j].Key.PropertyID
	})
	return out
}

// Runs returns the portal's run log in append order.
func (l *Ledger) Runs(portalID string) []domain.RunLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.RunLog
	for _, r := range l.runs {
		if r.PortalID == portalID {
			out = append(out, r)
		}
	}
	return out
}
