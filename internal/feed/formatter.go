// Package feed renders admitted properties into portal wire formats.
package feed

import (
	"fmt"
	"strings"
	"time"

	"portal_syndicator/internal/domain"
)

// Formatter renders an admitted set into one destination document. Output must
// be byte-identical for identical input, except for Options.GeneratedAt.
type Formatter interface {
	Render(items []domain.Property, opts Options) (*Document, error)
}

type Options struct {
	// BaseURL is the tenant's public site, used for listing detail links.
	BaseURL          string
	PhotoLimit       int
	StripHTML        bool
	PricePlaceholder bool
	GeneratedAt      time.Time
	Provider         domain.Contact
}

// OptionsFromFilters derives format options from a portal's filter switches.
func OptionsFromFilters(cfg domain.FilterConfig, baseURL string, provider domain.Contact, generatedAt time.Time) Options {
	return Options{
		BaseURL:          baseURL,
		PhotoLimit:       cfg.MaxPhotos(),
		StripHTML:        cfg.StripsHTML(),
		PricePlaceholder: cfg.UsesPricePlaceholder(),
		GeneratedAt:      generatedAt,
		Provider:         provider,
	}
}

type Document struct {
	Body        []byte
	ContentType string
	// Digest covers the listings and the header without PublishDate, so it
	// is stable across renders of the same input.
	Digest  string
	Items   int
	Skipped []SkippedItem
}

// SkippedItem is a listing left out of the document because it failed to
// encode.
type SkippedItem struct {
	PropertyID string `json:"propertyId"`
	Reason     string `json:"reason"`
}

// ForFormat returns the formatter for a portal's declared format.
func ForFormat(format string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", domain.FormatVRSync:
		return NewVRSync(), nil
	default:
		return nil, fmt.Errorf("unsupported feed format %q", format)
	}
}
