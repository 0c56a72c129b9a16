package feed

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal_syndicator/internal/domain"
	"portal_syndicator/internal/testutil"
)

type parsedFeed struct {
	PublishDate string          `xml:"Header>PublishDate"`
	Listings    []parsedListing `xml:"Listings>Listing"`
}

type parsedListing struct {
	ListingID       string   `xml:"ListingID"`
	Title           string   `xml:"Title"`
	TransactionType string   `xml:"TransactionType"`
	Photos          []string `xml:"Media>Item"`
	Description     string   `xml:"Details>Description"`
	ListPrice       string   `xml:"Details>ListPrice"`
	RentalPrice     string   `xml:"Details>RentalPrice"`
	PriceOnRequest  string   `xml:"Details>PriceOnRequest"`
	PropertyType    string   `xml:"Details>PropertyType"`
	City            string   `xml:"Location>City"`
}

func render(t *testing.T, items []domain.Property, opts Options) (*Document, parsedFeed) {
	t.Helper()

	doc, err := NewVRSync().Render(items, opts)
	require.NoError(t, err)

	var parsed parsedFeed
	require.NoError(t, xml.Unmarshal(doc.Body, &parsed))
	return doc, parsed
}

func baseOptions() Options {
	return Options{
		BaseURL:     "https://imobiliaria.example.com",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Provider:    domain.Contact{Name: "Imobiliária Exemplo", Email: "contato@example.com"},
	}
}

func TestVRSync_RendersListings(t *testing.T) {
	doc, parsed := render(t, []domain.Property{testutil.Property("p1"), testutil.Property("p2")}, baseOptions())

	assert.Equal(t, "application/xml; charset=utf-8", doc.ContentType)
	assert.Equal(t, 2, doc.Items)
	assert.Empty(t, doc.Skipped)
	assert.Equal(t, "2026-03-01T12:00:00Z", parsed.PublishDate)
	require.Len(t, parsed.Listings, 2)

	l := parsed.Listings[0]
	assert.Equal(t, "REF-p1", l.ListingID)
	assert.Equal(t, "Apartamento p1", l.Title)
	assert.Equal(t, "For Sale", l.TransactionType)
	assert.Equal(t, "450000", l.ListPrice)
	assert.Equal(t, "Residential / Apartment", l.PropertyType)
	assert.Equal(t, "Curitiba", l.City)
	assert.Contains(t, string(doc.Body), "https://imobiliaria.example.com/imovel/apartamento-p1")
}

func TestVRSync_Deterministic(t *testing.T) {
	items := []domain.Property{testutil.Property("p1"), testutil.Property("p2")}

	first, err := NewVRSync().Render(items, baseOptions())
	require.NoError(t, err)
	second, err := NewVRSync().Render(items, baseOptions())
	require.NoError(t, err)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.Digest, second.Digest)

	later := baseOptions()
	later.GeneratedAt = later.GeneratedAt.Add(time.Hour)
	third, err := NewVRSync().Render(items, later)
	require.NoError(t, err)
	assert.Equal(t, first.Digest, third.Digest)

	stripDate := func(b []byte) []byte {
		var out [][]byte
		for _, line := range bytes.Split(b, []byte("\n")) {
			if !bytes.Contains(line, []byte("<PublishDate>")) {
				out = append(out, line)
			}
		}
		return bytes.Join(out, []byte("\n"))
	}
	assert.Equal(t, stripDate(first.Body), stripDate(third.Body))
	assert.NotEqual(t, first.Body, third.Body)
}

func TestVRSync_PhotoTruncationKeepsOrder(t *testing.T) {
	p := testutil.Property("p1")
	p.Images = []domain.Image{
		{URL: "https://cdn.example.com/d.jpg", Order: 7},
		{URL: "https://cdn.example.com/a.jpg", Order: 1},
		{URL: "https://cdn.example.com/c.jpg", Order: 3},
		{URL: "https://cdn.example.com/b1.jpg", Order: 2},
		{URL: "https://cdn.example.com/b2.jpg", Order: 2},
	}
	opts := baseOptions()
	opts.PhotoLimit = 3

	_, parsed := render(t, []domain.Property{p}, opts)

	require.Len(t, parsed.Listings, 1)
	assert.Equal(t, []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b1.jpg",
		"https://cdn.example.com/b2.jpg",
	}, parsed.Listings[0].Photos)
	assert.Equal(t, 7, p.Images[0].Order, "input images must not be reordered")
}

func TestVRSync_StripHTML(t *testing.T) {
	p := testutil.Property("p1")
	p.Description = "<p>A</p><br/>B"
	opts := baseOptions()
	opts.StripHTML = true

	_, parsed := render(t, []domain.Property{p}, opts)

	desc := parsed.Listings[0].Description
	assert.Equal(t, []string{"A", "B"}, strings.Split(desc, "\n"))
	assert.NotContains(t, desc, "<")
	assert.NotContains(t, desc, ">")
}

func TestVRSync_HTMLKeptWhenNotStripping(t *testing.T) {
	p := testutil.Property("p1")
	p.Description = "<p>A</p>"

	_, parsed := render(t, []domain.Property{p}, baseOptions())

	assert.Equal(t, "<p>A</p>", parsed.Listings[0].Description)
}

func TestVRSync_PricePlaceholder(t *testing.T) {
	zero := testutil.Property("zero")
	zero.Price = testutil.Ptr(0.0)
	missing := testutil.Property("missing")
	missing.Price = nil

	opts := baseOptions()
	opts.PricePlaceholder = true
	doc, parsed := render(t, []domain.Property{zero, missing}, opts)

	for _, l := range parsed.Listings {
		assert.Equal(t, PriceOnRequest, l.PriceOnRequest)
		assert.Empty(t, l.ListPrice)
	}
	assert.NotContains(t, string(doc.Body), "<ListPrice")

	doc, parsed = render(t, []domain.Property{zero}, baseOptions())
	assert.Empty(t, parsed.Listings[0].PriceOnRequest)
	assert.NotContains(t, string(doc.Body), "<ListPrice")
}

func TestVRSync_RentalPrice(t *testing.T) {
	p := testutil.Property("p1")
	p.ForSale = false
	p.ForRent = true
	p.Price = testutil.Ptr(2500.4)

	_, parsed := render(t, []domain.Property{p}, baseOptions())

	assert.Equal(t, "For Rent", parsed.Listings[0].TransactionType)
	assert.Equal(t, "2500", parsed.Listings[0].RentalPrice)
	assert.Empty(t, parsed.Listings[0].ListPrice)
}

func TestVRSync_EscapesText(t *testing.T) {
	p := testutil.Property("p1")
	p.Title = `Casa "nova" & <grande> ]]> fim`
	p.Description = "linha\x00com\x1bcontrole ]]> e <tags>"
	p.City = "São José & Região"

	doc, parsed := render(t, []domain.Property{p}, baseOptions())

	assert.Equal(t, `Casa "nova" & <grande> ]]> fim`, parsed.Listings[0].Title)
	assert.Equal(t, "linhacomcontrole ]]> e <tags>", parsed.Listings[0].Description)
	assert.Equal(t, "São José & Região", parsed.Listings[0].City)
	assert.NotContains(t, string(doc.Body), "\x00")
	assert.NotContains(t, string(doc.Body), "\x1b")
}

func TestVRSync_UnmappedTypeFallsBackToProfile(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		profile  string
		expected string
	}{
		{name: "empty type", typ: "", profile: "residencial", expected: "Residential / Home"},
		{name: "unknown residential", typ: "garagem", profile: "Residencial", expected: "Residential / Home"},
		{name: "unknown commercial", typ: "box", profile: "comercial", expected: "Commercial / Business"},
		{name: "unknown rural", typ: "area", profile: "rural", expected: "Residential / Farm Ranch"},
		{name: "no profile", typ: "iglu", profile: "", expected: "Residential / Home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.Property("p1")
			p.Type = tt.typ
			p.Profile = tt.profile

			doc, parsed := render(t, []domain.Property{p}, baseOptions())

			assert.Equal(t, 1, doc.Items)
			assert.Empty(t, doc.Skipped)
			require.Len(t, parsed.Listings, 1)
			assert.Equal(t, tt.expected, parsed.Listings[0].PropertyType)
		})
	}
}

func TestVRSync_DigestCoversHeader(t *testing.T) {
	items := []domain.Property{testutil.Property("p1")}

	first, err := NewVRSync().Render(items, baseOptions())
	require.NoError(t, err)

	for _, change := range []func(*Options){
		func(o *Options) { o.Provider.Name = "Outra Imobiliária" },
		func(o *Options) { o.Provider.Email = "vendas@example.com" },
		func(o *Options) { o.Provider.Phone = "+55 41 3333-0000" },
	} {
		opts := baseOptions()
		change(&opts)

		changed, err := NewVRSync().Render(items, opts)
		require.NoError(t, err)
		assert.NotEqual(t, first.Digest, changed.Digest)
	}
}

func TestVRSync_PricesAreWholeUnits(t *testing.T) {
	p := testutil.Property("p1")
	p.Price = testutil.Ptr(1500.50)
	q := testutil.Property("p2")
	q.Price = testutil.Ptr(1500.49)

	_, parsed := render(t, []domain.Property{p, q}, baseOptions())

	assert.Equal(t, "1501", parsed.Listings[0].ListPrice)
	assert.Equal(t, "1500", parsed.Listings[1].ListPrice)
}

func TestVRSync_TypeNormalization(t *testing.T) {
	p := testutil.Property("p1")
	p.Type = "Galpão"
	c := testutil.Property("p2")
	c.Type = "Terreno"
	c.Profile = "Comercial"

	_, parsed := render(t, []domain.Property{p, c}, baseOptions())

	assert.Equal(t, "Commercial / Industrial", parsed.Listings[0].PropertyType)
	assert.Equal(t, "Commercial / Land Lot", parsed.Listings[1].PropertyType)
}

func TestVRSync_EmptySet(t *testing.T) {
	doc, parsed := render(t, nil, baseOptions())

	assert.Equal(t, 0, doc.Items)
	assert.Empty(t, parsed.Listings)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte(xml.Header)))
}

func TestForFormat(t *testing.T) {
	f, err := ForFormat("VRSync")
	require.NoError(t, err)
	assert.IsType(t, &VRSync{}, f)

	_, err = ForFormat("zap-legacy")
	assert.Error(t, err)
}
