// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"time"

	"portal_syndicator/internal/domain"
)

func Ptr[T any](v T) *T {
	return &v
}

// Property returns a complete, active, for-sale property with two photos.
func Property(id string) domain.Property {
	return domain.Property{
		ID:            id,
		TenantID:      "tenant-1",
		ReferenceCode: "REF-" + id,
		Title:         "Apartamento " + id,
		Slug:          "apartamento-" + id,
		Description:   "Apartamento amplo com vista.",
		Price:         Ptr(450000.0),
		ForSale:       true,
		Status:        domain.PropertyActive,
		Type:          "apartamento",
		Profile:       "residencial",
		Street:        "Rua das Flores",
		Number:        "100",
		Neighborhood:  "Centro",
		City:          "Curitiba",
		State:         "PR",
		PostalCode:    "80000-000",
		Bedrooms:      2,
		Bathrooms:     1,
		ParkingSpaces: 1,
		Area:          68,
		UpdatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Images: []domain.Image{
			{PropertyID: id, URL: fmt.Sprintf("https://cdn.example.com/%s/1.jpg", id), Order: 0},
			{PropertyID: id, URL: fmt.Sprintf("https://cdn.example.com/%s/2.jpg", id), Order: 1},
		},
	}
}

// ScenarioCatalog is five properties: three active for sale (two with photos,
// one without) and two inactive.
func ScenarioCatalog() []domain.Property {
	noPhotos := Property("p3")
	noPhotos.Images = nil

	inactive1 := Property("p4")
	inactive1.Status = domain.PropertyInactive
	inactive2 := Property("p5")
	inactive2.Status = domain.PropertyInactive

	return []domain.Property{Property("p1"), Property("p2"), noPhotos, inactive1, inactive2}
}

// ScenarioFilters is apenas_ativos, apenas_venda and excluir_sem_fotos.
func ScenarioFilters() domain.FilterConfig {
	return domain.FilterConfig{
		Version:         domain.FilterConfigVersion,
		ActiveOnly:      Ptr(true),
		SaleOnly:        Ptr(true),
		ExcludeNoPhotos: Ptr(true),
	}
}

const (
	PortalID   = "6f1c2a9e-4b1d-4c3e-9a57-0d2f8b7e1a10"
	PortalSlug = "zap-imoveis"
	FeedToken  = "s3cr3t-feed-token"
)

// Portal returns an active portal of tenant-1 configured with the scenario
// filters.
func Portal() *domain.Portal {
	return &domain.Portal{
		ID:        PortalID,
		TenantID:  "tenant-1",
		Name:      "ZAP Imóveis",
		Slug:      PortalSlug,
		FeedToken: FeedToken,
		Format:    domain.FormatVRSync,
		Active:    true,
		AutoSync:  true,
		Contact:   domain.Contact{Name: "Imobiliária Exemplo", Email: "contato@example.com"},
		Filters:   ScenarioFilters(),
	}
}
