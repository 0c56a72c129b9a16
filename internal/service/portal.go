package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"portal_syndicator/internal/domain"
)

func loadPortal(ctx context.Context, portals PortalStore, portalID string) (*domain.Portal, error) {
	portalID = strings.TrimSpace(portalID)
	if portalID == "" {
		return nil, fmt.Errorf("%w: portal id is required", domain.ErrInvalidInput)
	}
	if _, err := uuid.Parse(portalID); err != nil {
		return nil, fmt.Errorf("%w: portal id %q is not a valid UUID", domain.ErrInvalidInput, portalID)
	}

	portal, err := portals.GetByID(ctx, portalID)
	switch {
	case errors.Is(err, domain.ErrPortalNotFound):
		return nil, err
	case errors.Is(err, domain.ErrInvalidFilterConfig):
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	case err != nil:
		return nil, fmt.Errorf("get portal: %w: %w", domain.ErrUpstream, err)
	}
	return portal, nil
}

// FeedLinks builds the pull URLs portals are given. The URL embeds the
// portal's delivery token, so it must not be logged.
type FeedLinks struct {
	baseURL string
	path    string
}

func NewFeedLinks(baseURL, path string) FeedLinks {
	return FeedLinks{baseURL: strings.TrimRight(baseURL, "/"), path: path}
}

func (l FeedLinks) URL(p *domain.Portal) string {
	q := url.Values{}
	q.Set("portal", p.Slug)
	q.Set("token", p.FeedToken)

	u, err := url.Parse(l.baseURL)
	if err != nil {
		return l.baseURL + "/" + strings.TrimLeft(l.path, "/") + "?" + q.Encode()
	}
	u = u.JoinPath(l.path)
	u.RawQuery = q.Encode()
	return u.String()
}
