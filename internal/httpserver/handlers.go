package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"portal_syndicator/internal/domain"
)

type handlers struct {
	feeds       FeedRenderer
	syncer      Syncer
	validator   Validator
	cacheMaxAge time.Duration
	logger      *slog.Logger
}

type portalRequest struct {
	PortalID string `json:"portalId" query:"portalId"`
}

type syncResponse struct {
	Success     bool   `json:"success"`
	TotalItems  int    `json:"totalItems"`
	ElapsedTime int64  `json:"elapsedTime"`
	FeedURL     string `json:"feedUrl"`
}

type validateResponse struct {
	Valid      bool                 `json:"valid"`
	TotalItems int                  `json:"totalItems"`
	Warnings   []domain.Warning     `json:"warnings"`
	Preview    []domain.PreviewItem `json:"preview"`
	Config     domain.FilterConfig  `json:"config"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *handlers) feed(c echo.Context) error {
	slug := c.QueryParam("portal")
	token := c.QueryParam("token")
	if strings.TrimSpace(slug) == "" || token == "" {
		return c.String(http.StatusBadRequest, "missing portal or token parameter")
	}

	doc, err := h.feeds.Render(c.Request().Context(), slug, token)
	if err != nil {
		status, message := feedError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("feed render failed", "portal", slug, "error", err)
		}
		return c.String(status, message)
	}

	etag := `"` + doc.Digest + `"`
	header := c.Response().Header()
	header.Set(echo.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(h.cacheMaxAge.Seconds())))
	header.Set("ETag", etag)
	if len(doc.Skipped) > 0 {
		header.Set("X-Feed-Skipped", strconv.Itoa(len(doc.Skipped)))
	}

	if match := c.Request().Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		return c.NoContent(http.StatusNotModified)
	}

	return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
}

func (h *handlers) sync(c echo.Context) error {
	portalID, err := bindPortalID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Details: err.Error()})
	}

	result, err := h.syncer.Sync(c.Request().Context(), portalID)
	if err != nil {
		return h.jsonError(c, "sync failed", err)
	}

	return c.JSON(http.StatusOK, syncResponse{
		Success:     true,
		TotalItems:  result.Published,
		ElapsedTime: result.Duration.Milliseconds(),
		FeedURL:     result.FeedURL,
	})
}

func (h *handlers) validate(c echo.Context) error {
	portalID, err := bindPortalID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Details: err.Error()})
	}

	report, err := h.validator.Validate(c.Request().Context(), portalID)
	if err != nil {
		return h.jsonError(c, "validation failed", err)
	}

	warnings := report.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	preview := report.Preview
	if preview == nil {
		preview = []domain.PreviewItem{}
	}

	return c.JSON(http.StatusOK, validateResponse{
		Valid:      report.Valid,
		TotalItems: report.TotalItems,
		Warnings:   warnings,
		Preview:    preview,
		Config:     report.Config,
	})
}

// bindPortalID reads portalId from the JSON body, falling back to the query
// string. An empty body is allowed.
func bindPortalID(c echo.Context) (string, error) {
	var req portalRequest
	if err := c.Bind(&req); err != nil {
		return "", fmt.Errorf("decode request: %w", err)
	}
	if req.PortalID == "" {
		req.PortalID = c.QueryParam("portalId")
	}
	return req.PortalID, nil
}

func (h *handlers) jsonError(c echo.Context, message string, err error) error {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, "path", c.Path(), "error", err)
	}
	return c.JSON(status, errorResponse{Error: message, Details: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPortalNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFeedUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func feedError(err error) (int, string) {
	status := errorStatus(err)
	switch status {
	case http.StatusBadRequest:
		return status, "invalid feed request"
	case http.StatusNotFound:
		return status, "portal not found"
	case http.StatusForbidden:
		return status, "invalid token"
	default:
		return status, "feed unavailable"
	}
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
