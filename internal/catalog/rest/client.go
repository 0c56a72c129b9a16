// Package rest reads a tenant's catalog through the catalog service's HTTP
// API, for deployments where the syndicator has no direct database access.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"portal_syndicator/internal/domain"
)

const defaultPageSize = 100

type Config struct {
	BaseURL        string
	APIKey         string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		pageSize:       cfg.PageSize,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("catalog", "rest"),
	}
}

// FetchCatalog pages through the tenant's properties in the API's order
// (featured first, most recently updated next). limit <= 0 reads every page.
// Any failed page fails the whole read.
func (c *Client) FetchCatalog(ctx context.Context, tenantID string, limit int) ([]domain.Property, error) {
	pageSize := c.pageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	var all []Property
	for page := 0; ; page++ {
		resp, err := c.fetchPage(ctx, tenantID, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		all = append(all, resp.Content...)

		c.logger.Debug("fetched page",
			"tenant_id", tenantID,
			"page", page,
			"properties", len(resp.Content),
			"total", len(all),
		)

		if limit > 0 && len(all) >= limit {
			all = all[:limit]
			break
		}
		if len(resp.Content) == 0 || page >= resp.PageInfo.NumPages-1 {
			break
		}
	}

	return transform(all), nil
}

func (c *Client) fetchPage(ctx context.Context, tenantID string, page, pageSize int) (*PageResponse, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/tenants/%s/properties?%s", c.baseURL, url.PathEscape(tenantID), q.Encode())

	var resp *PageResponse
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err = c.doRequest(ctx, endpoint)
		if err == nil {
			return resp, nil
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (*PageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PortalSyndicator/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var page PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &page, nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func transform(items []Property) []domain.Property {
	properties := make([]domain.Property, 0, len(items))

	for _, it := range items {
		p := domain.Property{
			ID:            it.ID,
			TenantID:      it.TenantID,
			ReferenceCode: it.ReferenceCode,
			Title:         it.Title,
			Slug:          it.Slug,
			Description:   it.Description,
			Price:         it.Price,
			CondoFee:      it.CondoFee,
			PropertyTax:   it.PropertyTax,
			ForSale:       it.ForSale,
			ForRent:       it.ForRent,
			Status:        domain.PropertyStatus(strings.ToLower(it.Status)),
			Type:          it.Type,
			Profile:       it.Profile,
			Street:        it.Address.Street,
			Number:        it.Address.Number,
			Complement:    it.Address.Complement,
			Neighborhood:  it.Address.Neighborhood,
			City:          it.Address.City,
			State:         it.Address.State,
			PostalCode:    it.Address.PostalCode,
			Bedrooms:      it.Bedrooms,
			Bathrooms:     it.Bathrooms,
			Suites:        it.Suites,
			ParkingSpaces: it.ParkingSpaces,
			Area:          it.Area,
			TotalArea:     it.TotalArea,
			Featured:      it.Featured,
			UpdatedAt:     it.UpdatedAt,
		}

		for _, img := range it.Images {
			p.Images = append(p.Images, domain.Image{
				PropertyID: it.ID,
				URL:        img.URL,
				Order:      img.Order,
				Caption:    img.Caption,
			})
		}

		properties = append(properties, p)
	}

	return properties
}
