package feed

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/zeebo/blake3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"portal_syndicator/internal/domain"
)

const (
	vrsyncNamespace   = "http://www.vivareal.com/schemas/1.0/VRSync"
	vrsyncContentType = "application/xml; charset=utf-8"

	// PriceOnRequest is emitted instead of a price when the portal asks for a
	// placeholder and the property has no usable price.
	PriceOnRequest = "Sob Consulta"

	currencyBRL = "BRL"
	areaUnit    = "square metres"
)

var vrsyncTypes = map[string]string{
	"apartamento":         "Residential / Apartment",
	"casa":                "Residential / Home",
	"casa_de_condominio":  "Residential / Condo",
	"casa_condominio":     "Residential / Condo",
	"cobertura":           "Residential / Penthouse",
	"flat":                "Residential / Flat",
	"kitnet":              "Residential / Kitnet",
	"studio":              "Residential / Kitnet",
	"sobrado":             "Residential / Sobrado",
	"terreno":             "Residential / Land Lot",
	"lote":                "Residential / Land Lot",
	"chacara":             "Residential / Farm Ranch",
	"sitio":               "Residential / Farm Ranch",
	"fazenda":             "Commercial / Agricultural",
	"sala":                "Commercial / Office",
	"sala_comercial":      "Commercial / Office",
	"conjunto_comercial":  "Commercial / Office",
	"loja":                "Commercial / Business",
	"ponto_comercial":     "Commercial / Business",
	"galpao":              "Commercial / Industrial",
	"predio":              "Commercial / Building",
	"predio_comercial":    "Commercial / Building",
	"consultorio":         "Commercial / Consultorio",
	"hotel":               "Commercial / Hotel",
	"terreno_comercial":   "Commercial / Land Lot",
	"casa_comercial":      "Commercial / Residential Income",
	"apartamento_duplex":  "Residential / Apartment",
	"apartamento_triplex": "Residential / Apartment",
}

// profileTypes is used when a property's own type has no VRSync mapping.
var profileTypes = map[string]string{
	"residencial": "Residential / Home",
	"comercial":   "Commercial / Business",
	"rural":       "Residential / Farm Ranch",
}

const defaultPropertyType = "Residential / Home"

// VRSync renders the ZAP/VivaReal VRSync listing schema.
type VRSync struct {
	sanitizer *Sanitizer
}

func NewVRSync() *VRSync {
	return &VRSync{sanitizer: NewSanitizer()}
}

func (f *VRSync) Render(items []domain.Property, opts Options) (*Document, error) {
	doc := &Document{ContentType: vrsyncContentType}
	hasher := blake3.New()

	listings := make([]listing, 0, len(items))
	for i := range items {
		l := f.buildListing(&items[i], opts)
		encoded, err := xml.Marshal(l)
		if err != nil {
			doc.Skipped = append(doc.Skipped, SkippedItem{PropertyID: items[i].ID, Reason: err.Error()})
			continue
		}
		_, _ = hasher.Write(encoded)
		listings = append(listings, l)
	}

	h := header{
		Provider:  xmlText(opts.Provider.Name),
		Email:     xmlText(opts.Provider.Email),
		Telephone: xmlText(opts.Provider.Phone),
	}
	encodedHeader, err := xml.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	_, _ = hasher.Write(encodedHeader)
	h.PublishDate = opts.GeneratedAt.UTC().Format(time.RFC3339)

	root := listingDataFeed{
		XMLName:  xml.Name{Space: vrsyncNamespace, Local: "ListingDataFeed"},
		Header:   h,
		Listings: listings,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	buf.WriteByte('\n')

	doc.Body = buf.Bytes()
	doc.Items = len(listings)
	doc.Digest = hex.EncodeToString(hasher.Sum(nil))
	return doc, nil
}

func (f *VRSync) buildListing(p *domain.Property, opts Options) listing {
	propertyType := vrsyncPropertyType(p)

	description := p.Description
	if opts.StripHTML {
		description = f.sanitizer.PlainText(description)
	}

	l := listing{
		ListingID:       xmlText(p.ListingID()),
		Title:           cdata{xmlText(p.Title)},
		TransactionType: vrsyncTransaction(p.Transaction()),
		Featured:        p.Featured,
		DetailViewURL:   detailURL(opts.BaseURL, p.Slug),
		Media:           buildMedia(p.Images, opts.PhotoLimit),
		Details: details{
			UsageType:    strings.SplitN(propertyType, " / ", 2)[0],
			PropertyType: propertyType,
			Description:  cdata{xmlText(description)},
			LivingArea:   buildArea(p.Area),
			LotArea:      buildArea(p.TotalArea),
			Bedrooms:     p.Bedrooms,
			Bathrooms:    p.Bathrooms,
			Suites:       p.Suites,
			Garage:       buildGarage(p.ParkingSpaces),
			CondoFee:     buildPrice(p.CondoFee),
			YearlyTax:    buildPrice(p.PropertyTax),
		},
		Location: buildLocation(p),
	}

	switch {
	case p.HasPrice():
		amount := formatAmount(*p.Price)
		if p.ForSale || !p.ForRent {
			l.Details.ListPrice = &price{Currency: currencyBRL, Value: amount}
		} else {
			l.Details.RentalPrice = &rentalPrice{Currency: currencyBRL, Period: "Monthly", Value: amount}
		}
	case opts.PricePlaceholder:
		l.Details.PriceOnRequest = PriceOnRequest
	}

	return l
}

func vrsyncPropertyType(p *domain.Property) string {
	key := normalizeKey(p.Type)
	profile := normalizeKey(p.Profile)
	if profile == "comercial" {
		if t, ok := vrsyncTypes[key+"_comercial"]; ok {
			return t
		}
	}
	if t, ok := vrsyncTypes[key]; ok {
		return t
	}
	if t, ok := profileTypes[profile]; ok {
		return t
	}
	return defaultPropertyType
}

func normalizeKey(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

func vrsyncTransaction(t domain.TransactionType) string {
	switch t {
	case domain.TransactionRent:
		return "For Rent"
	case domain.TransactionSaleRent:
		return "Sale/Rent"
	default:
		return "For Sale"
	}
}

func detailURL(baseURL, slug string) string {
	if baseURL == "" || slug == "" {
		return ""
	}
	u, err := url.JoinPath(baseURL, "imovel", slug)
	if err != nil {
		return ""
	}
	return xmlText(u)
}

// buildMedia orders photos by their order index, keeping retrieval order for
// ties, and truncates to limit (0 means no limit).
func buildMedia(images []domain.Image, limit int) *media {
	if len(images) == 0 {
		return nil
	}

	sorted := slices.Clone(images)
	slices.SortStableFunc(sorted, func(a, b domain.Image) int {
		return cmp.Compare(a.Order, b.Order)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	m := &media{Items: make([]mediaItem, 0, len(sorted))}
	for i, img := range sorted {
		m.Items = append(m.Items, mediaItem{
			Medium:  "image",
			Caption: xmlText(img.Caption),
			Primary: i == 0,
			URL:     xmlText(img.URL),
		})
	}
	return m
}

func buildArea(v float64) *area {
	if v <= 0 {
		return nil
	}
	return &area{Unit: areaUnit, Value: formatAmount(v)}
}

func buildGarage(n int) *garage {
	if n <= 0 {
		return nil
	}
	return &garage{Type: "Parking Space", Value: n}
}

func buildPrice(v *float64) *price {
	if v == nil || *v <= 0 {
		return nil
	}
	return &price{Currency: currencyBRL, Value: formatAmount(*v)}
}

func buildLocation(p *domain.Property) location {
	loc := location{
		DisplayAddress: "All",
		Country:        country{Abbreviation: "BR", Name: "Brasil"},
		City:           xmlText(p.City),
		Neighborhood:   xmlText(p.Neighborhood),
		Address:        xmlText(p.Street),
		StreetNumber:   xmlText(p.Number),
		Complement:     xmlText(p.Complement),
		PostalCode:     xmlText(p.PostalCode),
	}
	if p.State != "" {
		loc.State = &state{Abbreviation: xmlText(strings.ToUpper(p.State)), Name: xmlText(strings.ToUpper(p.State))}
	}
	if !p.HasAddress() {
		loc.DisplayAddress = "Neighborhood"
	}
	return loc
}

// formatAmount writes whole units, rounding half away from zero. VRSync price
// and area elements are integer fields.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

// xmlText drops invalid UTF-8 and runes outside the XML 1.0 character range.
// encoding/xml escapes markup characters but leaves control characters in
// CDATA sections untouched.
func xmlText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r >= 0x20 && r <= 0xD7FF:
			return r
		case r >= 0xE000 && r <= 0xFFFD:
			return r
		case r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, s)
}

type listingDataFeed struct {
	XMLName  xml.Name
	Header   header    `xml:"Header"`
	Listings []listing `xml:"Listings>Listing"`
}

type header struct {
	Provider    string `xml:"Provider"`
	Email       string `xml:"Email,omitempty"`
	Telephone   string `xml:"Telephone,omitempty"`
	PublishDate string `xml:"PublishDate"`
}

type listing struct {
	XMLName         xml.Name `xml:"Listing"`
	ListingID       string   `xml:"ListingID"`
	Title           cdata    `xml:"Title"`
	TransactionType string   `xml:"TransactionType"`
	Featured        bool     `xml:"Featured"`
	DetailViewURL   string   `xml:"DetailViewUrl,omitempty"`
	Media           *media   `xml:"Media,omitempty"`
	Details         details  `xml:"Details"`
	Location        location `xml:"Location"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

type media struct {
	Items []mediaItem `xml:"Item"`
}

type mediaItem struct {
	Medium  string `xml:"medium,attr"`
	Caption string `xml:"caption,attr,omitempty"`
	Primary bool   `xml:"primary,attr,omitempty"`
	URL     string `xml:",chardata"`
}

type details struct {
	UsageType      string       `xml:"UsageType"`
	PropertyType   string       `xml:"PropertyType"`
	Description    cdata        `xml:"Description"`
	ListPrice      *price       `xml:"ListPrice,omitempty"`
	RentalPrice    *rentalPrice `xml:"RentalPrice,omitempty"`
	PriceOnRequest string       `xml:"PriceOnRequest,omitempty"`
	CondoFee       *price       `xml:"PropertyAdministrationFee,omitempty"`
	YearlyTax      *price       `xml:"YearlyTax,omitempty"`
	LivingArea     *area        `xml:"LivingArea,omitempty"`
	LotArea        *area        `xml:"LotArea,omitempty"`
	Bedrooms       int          `xml:"Bedrooms,omitempty"`
	Bathrooms      int          `xml:"Bathrooms,omitempty"`
	Suites         int          `xml:"Suites,omitempty"`
	Garage         *garage      `xml:"Garage,omitempty"`
}

type price struct {
	Currency string `xml:"currency,attr"`
	Value    string `xml:",chardata"`
}

type rentalPrice struct {
	Currency string `xml:"currency,attr"`
	Period   string `xml:"period,attr"`
	Value    string `xml:",chardata"`
}

type area struct {
	Unit  string `xml:"unit,attr"`
	Value string `xml:",chardata"`
}

type garage struct {
	Type  string `xml:"type,attr"`
	Value int    `xml:",chardata"`
}

type location struct {
	DisplayAddress string  `xml:"displayAddress,attr"`
	Country        country `xml:"Country"`
	State          *state  `xml:"State,omitempty"`
	City           string  `xml:"City,omitempty"`
	Neighborhood   string  `xml:"Neighborhood,omitempty"`
	Address        string  `xml:"Address,omitempty"`
	StreetNumber   string  `xml:"StreetNumber,omitempty"`
	Complement     string  `xml:"Complement,omitempty"`
	PostalCode     string  `xml:"PostalCode,omitempty"`
}

type country struct {
	Abbreviation string `xml:"abbreviation,attr"`
	Name         string `xml:",chardata"`
}

type state struct {
	Abbreviation string `xml:"abbreviation,attr"`
	Name         string `xml:",chardata"`
}
