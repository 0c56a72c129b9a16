package domain

import (
	"strings"
	"time"
)

type PropertyStatus string

const (
	PropertyActive   PropertyStatus = "active"
	PropertyInactive PropertyStatus = "inactive"
	PropertySold     PropertyStatus = "sold"
	PropertyRented   PropertyStatus = "rented"
)

// Property is the syndication view of a catalog property. It is read-only to
// the pipeline.
type Property struct {
	ID            string         `db:"id"`
	TenantID      string         `db:"tenant_id"`
	ReferenceCode string         `db:"reference_code"`
	Title         string         `db:"title"`
	Slug          string         `db:"slug"`
	Description   string         `db:"description"`
	Price         *float64       `db:"price"`
	CondoFee      *float64       `db:"condo_fee"`
	PropertyTax   *float64       `db:"property_tax"`
	ForSale       bool           `db:"for_sale"`
	ForRent       bool           `db:"for_rent"`
	Status        PropertyStatus `db:"status"`
	Type          string         `db:"property_type"`
	Profile       string         `db:"profile"`
	Street        string         `db:"street"`
	Number        string         `db:"street_number"`
	Complement    string         `db:"complement"`
	Neighborhood  string         `db:"neighborhood"`
	City          string         `db:"city"`
	State         string         `db:"state"`
	PostalCode    string         `db:"postal_code"`
	Bedrooms      int            `db:"bedrooms"`
	Bathrooms     int            `db:"bathrooms"`
	Suites        int            `db:"suites"`
	ParkingSpaces int            `db:"parking_spaces"`
	Area          float64        `db:"area"`
	TotalArea     float64        `db:"total_area"`
	Featured      bool           `db:"featured"`
	UpdatedAt     time.Time      `db:"updated_at"`
	Images        []Image        `db:"-"`
}

// Image is a photo reference. Order is advisory: gaps are allowed and ties keep
// retrieval order.
type Image struct {
	PropertyID string `db:"property_id"`
	URL        string `db:"url"`
	Order      int    `db:"sort_order"`
	Caption    string `db:"caption"`
}

func (p *Property) IsActive() bool {
	return p.Status == PropertyActive
}

func (p *Property) HasPrice() bool {
	return p.Price != nil && *p.Price > 0
}

func (p *Property) HasPhotos() bool {
	return len(p.Images) > 0
}

func (p *Property) HasDescription() bool {
	return strings.TrimSpace(p.Description) != ""
}

// HasAddress reports whether the property carries enough address data to be
// located: a street and a city.
func (p *Property) HasAddress() bool {
	return strings.TrimSpace(p.Street) != "" && strings.TrimSpace(p.City) != ""
}

// ListingID is the identifier portals see: the reference code when the
// operator set one, the internal ID otherwise.
func (p *Property) ListingID() string {
	if p.ReferenceCode != "" {
		return p.ReferenceCode
	}
	return p.ID
}

type TransactionType string

const (
	TransactionSale     TransactionType = "sale"
	TransactionRent     TransactionType = "rent"
	TransactionSaleRent TransactionType = "sale_rent"
)

func (p *Property) Transaction() TransactionType {
	switch {
	case p.ForSale && p.ForRent:
		return TransactionSaleRent
	case p.ForRent:
		return TransactionRent
	default:
		return TransactionSale
	}
}
