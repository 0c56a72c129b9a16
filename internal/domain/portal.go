package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const FormatVRSync = "vrsync"

// Portal is a syndication destination. Owned by the operator; the pipeline
// only reads it.
type Portal struct {
	ID        string
	TenantID  string
	Name      string
	Slug      string
	FeedToken string
	Format    string
	Active    bool
	AutoSync  bool
	Contact   Contact
	Filters   FilterConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Contact struct {
	Name  string
	Email string
	Phone string
}

// FilterConfigVersion is the newest filter configuration layout this build
// understands.
const FilterConfigVersion = 1

// FilterConfig is the closed set of per-portal filter switches. A nil switch
// means "no constraint".
type FilterConfig struct {
	Version          int   `json:"version"`
	ActiveOnly       *bool `json:"apenas_ativos,omitempty"`
	SaleOnly         *bool `json:"apenas_venda,omitempty"`
	RentalOnly       *bool `json:"apenas_locacao,omitempty"`
	FeaturedOnly     *bool `json:"apenas_destaque,omitempty"`
	ExcludeNoPhotos  *bool `json:"excluir_sem_fotos,omitempty"`
	ExcludeNoAddress *bool `json:"excluir_sem_endereco,omitempty"`
	PhotoLimit       *int  `json:"limite_fotos,omitempty"`
	StripHTML        *bool `json:"remover_html,omitempty"`
	PricePlaceholder *bool `json:"preco_sob_consulta,omitempty"`
}

// ParseFilterConfig decodes a stored filter blob. Unknown keys, future versions
// and out-of-range values are rejected so a misconfigured portal fails loudly
// instead of silently admitting or dropping listings.
func ParseFilterConfig(raw []byte) (FilterConfig, error) {
	var cfg FilterConfig
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		cfg.Version = FilterConfigVersion
		return cfg, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return FilterConfig{}, fmt.Errorf("%w: %v", ErrInvalidFilterConfig, err)
	}

	if cfg.Version == 0 {
		cfg.Version = FilterConfigVersion
	}
	if err := cfg.Validate(); err != nil {
		return FilterConfig{}, err
	}
	return cfg, nil
}

func (c FilterConfig) Validate() error {
	if c.Version < 0 || c.Version > FilterConfigVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidFilterConfig, c.Version)
	}
	if c.PhotoLimit != nil && *c.PhotoLimit < 0 {
		return fmt.Errorf("%w: limite_fotos must not be negative", ErrInvalidFilterConfig)
	}
	return nil
}

func (c FilterConfig) IsActiveOnly() bool         { return isSet(c.ActiveOnly) }
func (c FilterConfig) IsSaleOnly() bool           { return isSet(c.SaleOnly) }
func (c FilterConfig) IsRentalOnly() bool         { return isSet(c.RentalOnly) }
func (c FilterConfig) IsFeaturedOnly() bool       { return isSet(c.FeaturedOnly) }
func (c FilterConfig) ExcludesNoPhotos() bool     { return isSet(c.ExcludeNoPhotos) }
func (c FilterConfig) ExcludesNoAddress() bool    { return isSet(c.ExcludeNoAddress) }
func (c FilterConfig) StripsHTML() bool           { return isSet(c.StripHTML) }
func (c FilterConfig) UsesPricePlaceholder() bool { return isSet(c.PricePlaceholder) }

// MaxPhotos returns the configured photo limit, or 0 for unlimited.
func (c FilterConfig) MaxPhotos() int {
	if c.PhotoLimit == nil {
		return 0
	}
	return *c.PhotoLimit
}

func isSet(b *bool) bool {
	return b != nil && *b
}
