package domain

import (
	"encoding/json"
	"time"
)

type PublicationStatus string

const (
	PublicationPublished PublicationStatus = "published"
	PublicationFailed    PublicationStatus = "failed"
	PublicationSkipped   PublicationStatus = "skipped"
)

// PublicationKey identifies a ledger row. Every write to the ledger is an
// upsert keyed by it.
type PublicationKey struct {
	PortalID   string
	PropertyID string
}

// PublicationRecord is the per-(portal, property) syndication state.
type PublicationRecord struct {
	Key           PublicationKey
	Status        PublicationStatus
	LastAttemptAt time.Time
	Snapshot      PublicationSnapshot
}

// PublicationSnapshot is what was sent for a property, kept for audit and diff.
type PublicationSnapshot struct {
	ReferenceCode string          `json:"reference_code"`
	Title         string          `json:"title"`
	Price         *float64        `json:"price,omitempty"`
	Transaction   TransactionType `json:"transaction"`
	PhotoCount    int             `json:"photo_count"`
	City          string          `json:"city,omitempty"`
	Neighborhood  string          `json:"neighborhood,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func NewPublicationSnapshot(p *Property) PublicationSnapshot {
	return PublicationSnapshot{
		ReferenceCode: p.ListingID(),
		Title:         p.Title,
		Price:         p.Price,
		Transaction:   p.Transaction(),
		PhotoCount:    len(p.Images),
		City:          p.City,
		Neighborhood:  p.Neighborhood,
		UpdatedAt:     p.UpdatedAt.UTC(),
	}
}

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
)

// RunLog is one append-only row per reconciler run.
type RunLog struct {
	ID        string
	PortalID  string
	Status    RunStatus
	ItemCount int
	Duration  time.Duration
	FeedURL   string
	Details   RunDetails
	CreatedAt time.Time
}

type RunDetails struct {
	Filters  FilterConfig   `json:"filters"`
	Message  string         `json:"message"`
	Admitted int            `json:"admitted"`
	Failed   int            `json:"failed"`
	Rejected map[Reason]int `json:"rejected,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}

func (d RunDetails) JSON() ([]byte, error) {
	return json.Marshal(d)
}
