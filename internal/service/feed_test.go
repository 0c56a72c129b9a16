package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"portal_syndicator/internal/config"
	"portal_syndicator/internal/domain"
	"portal_syndicator/internal/metrics"
	"portal_syndicator/internal/service/mocks"
	"portal_syndicator/internal/testutil"
)

type FeedServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	portals *mocks.MockPortalStore
	catalog *mocks.MockCatalogReader

	service *FeedService
}

func (s *FeedServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.portals = mocks.NewMockPortalStore(s.ctrl)
	s.catalog = mocks.NewMockCatalogReader(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.service = NewFeedService(s.portals, s.catalog, logger,
		config.ServerConfig{SiteURL: "https://imobiliaria.example.com"},
		config.FeedConfig{ProviderName: "Portal Syndicator"},
	)
	s.service.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
}

func (s *FeedServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFeedServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FeedServiceTestSuite))
}

func (s *FeedServiceTestSuite) TestRender_Scenario() {
	ctx := context.Background()

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(testutil.Portal(), nil)
	s.catalog.EXPECT().FetchCatalog(ctx, "tenant-1", 0).Return(testutil.ScenarioCatalog(), nil)

	doc, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)

	s.Require().NoError(err)
	s.Equal(2, doc.Items)
	s.Empty(doc.Skipped)
	s.NotEmpty(doc.Digest)
	s.True(strings.HasPrefix(doc.ContentType, "application/xml"))

	body := string(doc.Body)
	s.Contains(body, "<ListingID>REF-p1</ListingID>")
	s.Contains(body, "<ListingID>REF-p2</ListingID>")
	s.NotContains(body, "REF-p3")
	s.Contains(body, "https://imobiliaria.example.com/imovel/apartamento-p1")
	s.Contains(body, "2026-03-04T10:00:00Z")
}

func (s *FeedServiceTestSuite) TestRender_StableDigest() {
	ctx := context.Background()

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(testutil.Portal(), nil).Times(2)
	s.catalog.EXPECT().FetchCatalog(ctx, "tenant-1", 0).Return(testutil.ScenarioCatalog(), nil).Times(2)

	first, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)
	s.Require().NoError(err)

	s.service.now = func() time.Time { return time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC) }
	second, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)
	s.Require().NoError(err)

	s.Equal(first.Digest, second.Digest)
}

func (s *FeedServiceTestSuite) TestRender_MissingParams() {
	ctx := context.Background()

	_, err := s.service.Render(ctx, "", testutil.FeedToken)
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.service.Render(ctx, testutil.PortalSlug, "")
	s.ErrorIs(err, domain.ErrInvalidInput)
}

func (s *FeedServiceTestSuite) TestRender_UnknownPortal() {
	ctx := context.Background()

	s.portals.EXPECT().GetBySlug(ctx, "nope").Return(nil, domain.ErrPortalNotFound)

	_, err := s.service.Render(ctx, "nope", testutil.FeedToken)

	s.ErrorIs(err, domain.ErrPortalNotFound)
}

func (s *FeedServiceTestSuite) TestRender_InactivePortal() {
	ctx := context.Background()
	portal := testutil.Portal()
	portal.Active = false

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(portal, nil)

	_, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)

	s.ErrorIs(err, domain.ErrPortalNotFound)
}

func (s *FeedServiceTestSuite) TestRender_WrongToken() {
	ctx := context.Background()

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(testutil.Portal(), nil)

	_, err := s.service.Render(ctx, testutil.PortalSlug, "guess")

	s.ErrorIs(err, domain.ErrFeedUnauthorized)
}

func (s *FeedServiceTestSuite) TestRender_CatalogError() {
	ctx := context.Background()

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(testutil.Portal(), nil)
	s.catalog.EXPECT().FetchCatalog(ctx, "tenant-1", 0).Return(nil, errors.New("connection refused"))

	doc, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)

	s.ErrorIs(err, domain.ErrUpstream)
	s.Nil(doc)
}

func (s *FeedServiceTestSuite) TestRender_UnsupportedFormat() {
	ctx := context.Background()
	portal := testutil.Portal()
	portal.Format = "olx"

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(portal, nil)
	s.catalog.EXPECT().FetchCatalog(ctx, "tenant-1", 0).Return(testutil.ScenarioCatalog(), nil)

	_, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)

	s.Error(err)
	s.Contains(err.Error(), "unsupported feed format")
}

func (s *FeedServiceTestSuite) TestRender_RendersUnmappedTypes() {
	ctx := context.Background()

	catalog := []domain.Property{testutil.Property("p1"), testutil.Property("p2")}
	catalog[1].Type = ""

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(testutil.Portal(), nil)
	s.catalog.EXPECT().FetchCatalog(ctx, "tenant-1", 0).Return(catalog, nil)

	doc, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)

	s.Require().NoError(err)
	s.Equal(2, doc.Items)
	s.Empty(doc.Skipped)
	s.Contains(string(doc.Body), "<ListingID>REF-p2</ListingID>")
}

func (s *FeedServiceTestSuite) TestRender_InvalidFilterConfig() {
	ctx := context.Background()
	before := promtest.ToFloat64(metrics.FeedRendersTotal.WithLabelValues("error"))

	s.portals.EXPECT().GetBySlug(ctx, testutil.PortalSlug).Return(nil, domain.ErrInvalidFilterConfig)

	_, err := s.service.Render(ctx, testutil.PortalSlug, testutil.FeedToken)

	s.ErrorIs(err, domain.ErrInvalidInput)
	s.Equal(before+1, promtest.ToFloat64(metrics.FeedRendersTotal.WithLabelValues("error")))
}

func (s *FeedServiceTestSuite) TestFeedLinks() {
	links := NewFeedLinks("https://app.example.com/", "/api/portal-feed")

	s.Equal(
		"https://app.example.com/api/portal-feed?portal=zap-imoveis&token=s3cr3t-feed-token",
		links.URL(testutil.Portal()),
	)
}
