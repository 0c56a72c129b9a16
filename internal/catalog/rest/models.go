package rest

import "time"

// PageResponse is one page of the catalog API's property listing.
type PageResponse struct {
	PageInfo PageInfo   `json:"pageInfo"`
	Content  []Property `json:"content"`
}

type PageInfo struct {
	Page       int `json:"page"`
	NumPages   int `json:"numPages"`
	PageSize   int `json:"pageSize"`
	NumEntries int `json:"numEntries"`
}

type Property struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenantId"`
	ReferenceCode string    `json:"referenceCode"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         *float64  `json:"price"`
	CondoFee      *float64  `json:"condoFee"`
	PropertyTax   *float64  `json:"propertyTax"`
	ForSale       bool      `json:"forSale"`
	ForRent       bool      `json:"forRent"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	Profile       string    `json:"profile"`
	Address       Address   `json:"address"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	Suites        int       `json:"suites"`
	ParkingSpaces int       `json:"parkingSpaces"`
	Area          float64   `json:"area"`
	TotalArea     float64   `json:"totalArea"`
	Featured      bool      `json:"featured"`
	Images        []Image   `json:"images"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
}

type Image struct {
	URL     string `json:"url"`
	Order   int    `json:"order"`
	Caption string `json:"caption"`
}
