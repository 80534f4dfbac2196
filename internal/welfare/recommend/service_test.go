package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	familymodels "welfarehub/internal/family/models"
	familystore "welfarehub/internal/family/store"
	"welfarehub/internal/welfare/catalog/store"
	"welfarehub/internal/welfare/criteria"
	"welfarehub/internal/welfare/criteria/mocks"
	"welfarehub/internal/welfare/metrics"
	"welfarehub/internal/welfare/models"
	"welfarehub/internal/welfare/profile"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/requestcontext"
)

type failingCatalog struct{ *store.InMemoryStore }

func (failingCatalog) ListActive(context.Context) ([]*models.BenefitRecord, error) {
	return nil, errors.New("connection refused")
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	catalog   *store.InMemoryStore
	family    *familystore.InMemoryStore
	completer *mocks.MockCompleter
	spans     *tracetest.SpanRecorder
	service   *Service
	userID    id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.catalog = store.NewInMemory()
	s.family = familystore.NewInMemory()
	s.completer = mocks.NewMockCompleter(gomock.NewController(s.T()))
	s.spans = tracetest.NewSpanRecorder()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())
	gen := criteria.New(s.completer, criteria.Config{Timeout: time.Second}, criteria.WithLogger(logger), criteria.WithMetrics(m))
	agg := profile.New(s.family, s.family, s.family, profile.WithLogger(logger))
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.spans))
	s.service = New(s.catalog, agg, gen, WithLogger(logger), WithMetrics(m), WithTracer(tp.Tracer("test")))

	// 34 years old in Seoul with one child.
	s.userID = id.NewUserID()
	birth := time.Date(1991, 6, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.family.SaveUser(s.ctx, &familymodels.User{ID: s.userID, BirthDate: &birth, SidoName: "서울특별시"}))
	s.Require().NoError(s.family.AddChild(s.ctx, &familymodels.Child{UserID: s.userID, Name: "하준", BirthDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}))

	s.seed("서울 양육수당", "서울특별시", 300_000)
	s.seed("서울 보육료", "서울특별시", 500_000)
	s.seed("서울 출산축하금", "서울특별시", 1_000_000)
	s.seed("부산 양육수당", "부산광역시", 2_000_000)
	s.seed("부산 다자녀", "부산광역시", 700_000)
}

func (s *ServiceSuite) seed(name, region string, amount int64) {
	_, err := s.catalog.Upsert(s.ctx, &models.BenefitRecord{
		SourceID:      name,
		Name:          name,
		ServiceScope:  models.ScopeLocal,
		Region:        &region,
		SupportAmount: &amount,
		Description:   "자녀 양육 가정 지원",
	}, s.now)
	s.Require().NoError(err)
}

func names(items []*models.BenefitRecord) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.Name
	}
	return out
}

func (s *ServiceSuite) TestEndToEndWithModelCriteria() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return("```json\n{\"region\": \"서울특별시\", \"max_age\": 34, \"requires_children\": true, \"include_keywords\": [\"양육\"], \"confidence\": 0.7}\n```", nil)

	page, err := s.service.GetPersonalizedRecommendations(s.ctx, s.userID, 0, 10)
	s.Require().NoError(err)

	s.Equal([]string{"서울 출산축하금", "서울 보육료", "서울 양육수당"}, names(page.Items))
	s.Equal(3, page.TotalItems)
	s.Equal(models.CriteriaSourceAI, page.CriteriaSource)
	s.False(page.Widened)

	var spanNames []string
	for _, sp := range s.spans.Ended() {
		spanNames = append(spanNames, sp.Name())
	}
	s.Contains(spanNames, "recommend.GetPersonalizedRecommendations")
	s.Contains(spanNames, "recommend.GenerateCriteria")
}

func (s *ServiceSuite) TestFallbackWhenModelFails() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("upstream 500"))

	page, err := s.service.GetPersonalizedRecommendations(s.ctx, s.userID, 0, 10)
	s.Require().NoError(err)

	s.Equal(models.CriteriaSourceFallback, page.CriteriaSource)
	s.Equal([]string{"서울 출산축하금", "서울 보육료", "서울 양육수당"}, names(page.Items))
	s.NotEmpty(page.Explanation)
}

func (s *ServiceSuite) TestBeyondLastPageIsEmpty() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("down"))
	page, err := s.service.GetPersonalizedRecommendations(s.ctx, s.userID, 5, 10)
	s.Require().NoError(err)
	s.Empty(page.Items)
	s.Equal(3, page.TotalItems)
}

func (s *ServiceSuite) TestInvalidInput() {
	_, err := s.service.GetPersonalizedRecommendations(s.ctx, s.userID, 0, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.GetPersonalizedRecommendations(s.ctx, s.userID, -1, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestUnknownUser() {
	_, err := s.service.GetPersonalizedRecommendations(s.ctx, id.NewUserID(), 0, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCatalogFailureDegradesToEmptyPage() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("down"))
	svc := New(failingCatalog{s.catalog}, s.service.profiles, s.service.criteria, WithLogger(s.service.logger))

	page, err := svc.GetPersonalizedRecommendations(s.ctx, s.userID, 1, 10)
	s.Require().NoError(err)
	s.True(page.Degraded)
	s.Empty(page.Items)
	s.NotNil(page.Items)
	s.Equal(1, page.Page)
	s.Equal(models.CriteriaSourceFallback, page.CriteriaSource)

	browse, err := svc.Browse(s.ctx, BrowseQuery{Region: "부산", Page: 0, Size: 10})
	s.Require().NoError(err)
	s.True(browse.Degraded)
	s.Zero(browse.TotalItems)
}

func (s *ServiceSuite) TestRefreshFailsWhenCatalogUnreadable() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("down"))
	svc := New(failingCatalog{s.catalog}, s.service.profiles, s.service.criteria, WithLogger(s.service.logger))
	err := svc.Refresh(s.ctx, s.userID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestBrowse() {
	page, err := s.service.Browse(s.ctx, BrowseQuery{Region: "부산", Page: 0, Size: 10})
	s.Require().NoError(err)
	s.Equal([]string{"부산 양육수당", "부산 다자녀"}, names(page.Items))

	page, err = s.service.Browse(s.ctx, BrowseQuery{Keyword: "주거", Page: 0, Size: 10})
	s.Require().NoError(err)
	s.Empty(page.Items, "explicit searches are never widened")
}

func (s *ServiceSuite) TestRefresh() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("down"))
	s.NoError(s.service.Refresh(s.ctx, s.userID))
	s.Error(s.service.Refresh(s.ctx, id.NewUserID()))
}

func (s *ServiceSuite) TestGetBenefit() {
	recs, err := s.catalog.ListActive(s.ctx)
	s.Require().NoError(err)

	got, err := s.service.GetBenefit(s.ctx, recs[0].ID)
	s.Require().NoError(err)
	s.Equal(recs[0].Name, got.Name)

	_, err = s.service.GetBenefit(s.ctx, id.NewBenefitID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
