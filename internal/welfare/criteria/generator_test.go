package criteria

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"welfarehub/internal/welfare/criteria/mocks"
	"welfarehub/internal/welfare/metrics"
	"welfarehub/internal/welfare/models"
	"welfarehub/pkg/platform/circuit"
)

//go:generate mockgen -source=completer.go -destination=mocks/completer_mock.go -package=mocks Completer

type memoryCache struct {
	mu    sync.Mutex
	items map[string]models.FilterCriteria
	err   error
}

func (m *memoryCache) Get(_ context.Context, key string) (*models.FilterCriteria, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memoryCache) Set(_ context.Context, key string, c *models.FilterCriteria) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = *c
	return nil
}

type GeneratorSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	completer *mocks.MockCompleter
	cache     *memoryCache
	now       time.Time
	profile   *models.UserProfile
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.completer = mocks.NewMockCompleter(s.ctrl)
	s.cache = &memoryCache{items: map[string]models.FilterCriteria{}}
	s.now = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	s.profile = &models.UserProfile{
		Age:           31,
		SidoName:      "서울특별시",
		HasChildren:   true,
		ChildrenCount: 1,
		Children:      []models.ChildProfile{{Age: 2}},
	}
}

func (s *GeneratorSuite) newGenerator(opts ...Option) *Generator {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
		WithClock(func() time.Time { return s.now }),
	}
	return New(s.completer, Config{Timeout: time.Second}, append(base, opts...)...)
}

func (s *GeneratorSuite) TestModelCriteria() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return("```json\n{\"include_keywords\":[\"보육\"],\"region\":\"서울특별시\",\"confidence\":0.9}\n```", nil)

	c := s.newGenerator().Generate(context.Background(), s.profile)

	s.Equal(models.CriteriaSourceAI, c.Source)
	s.Equal([]string{"보육"}, c.IncludeKeywords)
}

func (s *GeneratorSuite) TestPromptCarriesTimeout() {
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, prompt string) (string, error) {
			deadline, ok := ctx.Deadline()
			s.True(ok)
			s.WithinDuration(time.Now().Add(time.Second), deadline, time.Second)
			s.Contains(prompt, "31세")
			return `{"region":"서울"}`, nil
		})
	s.newGenerator().Generate(context.Background(), s.profile)
}

func (s *GeneratorSuite) TestFailuresFallBack() {
	cases := []struct {
		name   string
		output string
		err    error
	}{
		{"unavailable", "", errors.New("503 service unavailable")},
		{"timeout", "", context.DeadlineExceeded},
		{"unparseable", "I cannot help with that.", nil},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(tc.output, tc.err)

			c := s.newGenerator().Generate(context.Background(), s.profile)

			s.Equal(models.CriteriaSourceFallback, c.Source)
			s.Equal("서울특별시", c.Region)
			s.Equal([]string{models.LifeInfant, models.LifeYouth}, c.LifeCycles)
			s.Empty(c.IncludeKeywords)
			s.Empty(c.ExcludeKeywords)
		})
	}
}

func (s *GeneratorSuite) TestCircuitOpensAfterRepeatedFailures() {
	breaker := circuit.New("llm",
		circuit.WithFailureThreshold(5),
		circuit.WithSuccessThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return s.now }),
	)
	gen := s.newGenerator(WithBreaker(breaker))

	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("down")).Times(5)
	for range 5 {
		gen.Generate(context.Background(), s.profile)
	}
	s.True(breaker.IsOpen())

	// Open circuit: no model call at all.
	c := gen.Generate(context.Background(), s.profile)
	s.Equal(models.CriteriaSourceFallback, c.Source)

	// After the cooldown, two healthy probes close it again.
	s.now = s.now.Add(2 * time.Minute)
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{"region":"서울"}`, nil).Times(2)
	gen.Generate(context.Background(), s.profile)
	s.True(breaker.IsOpen())
	gen.Generate(context.Background(), s.profile)
	s.False(breaker.IsOpen())
}

func (s *GeneratorSuite) TestCacheHitSkipsModel() {
	gen := s.newGenerator(WithCache(s.cache))

	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{"include_keywords":["보육"]}`, nil).Times(1)
	first := gen.Generate(context.Background(), s.profile)
	s.Equal(models.CriteriaSourceAI, first.Source)

	second := gen.Generate(context.Background(), s.profile)
	s.Equal(models.CriteriaSourceCache, second.Source)
	s.Equal(first.IncludeKeywords, second.IncludeKeywords)
}

func (s *GeneratorSuite) TestFallbackIsNotCached() {
	gen := s.newGenerator(WithCache(s.cache))
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("down"))
	gen.Generate(context.Background(), s.profile)
	s.Empty(s.cache.items)
}

func (s *GeneratorSuite) TestCacheErrorIgnored() {
	s.cache.err = errors.New("redis down")
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{"region":"서울"}`, nil)
	c := s.newGenerator(WithCache(s.cache)).Generate(context.Background(), s.profile)
	s.Equal(models.CriteriaSourceAI, c.Source)
}

func (s *GeneratorSuite) TestNoCompleterUsesFallback() {
	gen := New(nil, Config{}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c := gen.Generate(context.Background(), s.profile)
	s.Equal(models.CriteriaSourceFallback, c.Source)
}
