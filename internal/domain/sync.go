package domain

import "time"

// Reason explains why a property was rejected or flagged by the filter engine.
type Reason string

const (
	ReasonMissingPrice       Reason = "missing_price"
	ReasonMissingPhotos      Reason = "missing_photos"
	ReasonMissingDescription Reason = "missing_description"
	ReasonMissingAddress     Reason = "missing_address"
	ReasonFilteredOut        Reason = "filtered_out"
)

// Reasons lists every reason in reporting order.
var Reasons = []Reason{
	ReasonMissingPrice,
	ReasonMissingPhotos,
	ReasonMissingDescription,
	ReasonMissingAddress,
	ReasonFilteredOut,
}

// SyncResult holds statistics about a reconciler run.
type SyncResult struct {
	PortalID  string
	RunLogID  string
	Admitted  int
	Published int
	Failed    int
	Rejected  map[Reason]int
	Errors    []string
	Duration  time.Duration
	FeedURL   string
}

// ValidationReport is the outcome of a dry run. It is never persisted.
type ValidationReport struct {
	Valid      bool
	TotalItems int
	Warnings   []Warning
	Preview    []PreviewItem
	Config     FilterConfig
}

type Warning struct {
	Code    Reason `json:"code"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

type PreviewItem struct {
	ID            string          `json:"id"`
	ReferenceCode string          `json:"referenceCode"`
	Title         string          `json:"title"`
	Price         *float64        `json:"price"`
	PhotoCount    int             `json:"photoCount"`
	Transaction   TransactionType `json:"transaction"`
}
