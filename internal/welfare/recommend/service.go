// Package recommend composes profile, criteria and matcher into the
// personalized recommendation and catalog browse operations.
package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"welfarehub/internal/welfare/matcher"
	"welfarehub/internal/welfare/metrics"
	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/requestcontext"
)

const refreshPageSize = 20

type Catalog interface {
	ListActive(ctx context.Context) ([]*models.BenefitRecord, error)
	FindByID(ctx context.Context, benefitID id.BenefitID) (*models.BenefitRecord, error)
}

type ProfileBuilder interface {
	BuildProfile(ctx context.Context, userID id.UserID) (*models.UserProfile, error)
}

type CriteriaGenerator interface {
	Generate(ctx context.Context, p *models.UserProfile) models.FilterCriteria
}

// RecommendationPage is a ranked page plus the criteria that produced it.
type RecommendationPage struct {
	Items          []*models.BenefitRecord `json:"items"`
	Page           int                     `json:"page"`
	Size           int                     `json:"size"`
	TotalItems     int                     `json:"total_items"`
	TotalPages     int                     `json:"total_pages"`
	Widened        bool                    `json:"widened"`
	Degraded       bool                    `json:"degraded,omitempty"`
	CriteriaSource models.CriteriaSource   `json:"criteria_source,omitempty"`
	Explanation    string                  `json:"explanation,omitempty"`
	Criteria       *models.FilterCriteria  `json:"criteria,omitempty"`
}

type BrowseQuery struct {
	Region  string
	Keyword string
	Page    int
	Size    int
}

type Service struct {
	catalog  Catalog
	profiles ProfileBuilder
	criteria CriteriaGenerator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(catalog Catalog, profiles ProfileBuilder, criteria CriteriaGenerator, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		profiles: profiles,
		criteria: criteria,
		logger:   slog.Default(),
		tracer:   otel.Tracer("welfarehub/welfare/recommend"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPersonalizedRecommendations builds the user's profile, derives criteria
// and matches them against the active catalog. Only invalid input and unknown
// users are errors. Criteria problems degrade to fallback criteria; an
// unreadable catalog yields an empty page marked Degraded.
func (s *Service) GetPersonalizedRecommendations(ctx context.Context, userID id.UserID, page, size int) (*RecommendationPage, error) {
	if err := validatePage(page, size); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "recommend.GetPersonalizedRecommendations",
		trace.WithAttributes(
			attribute.String("user.id", userID.String()),
			attribute.Int("page", page),
			attribute.Int("size", size),
		),
	)
	defer span.End()
	start := time.Now()

	profile, err := s.buildProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile")
		return nil, err
	}

	criteria := s.generate(ctx, profile)

	records, err := s.listActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog")
		empty := degradedPage(page, size)
		empty.CriteriaSource = criteria.Source
		empty.Explanation = criteria.Explanation
		empty.Criteria = &criteria
		return empty, nil
	}

	result := matcher.Match(matcher.Benefits(records), matcher.FromCriteria(criteria), page, size)
	span.SetAttributes(
		attribute.String("criteria.source", string(criteria.Source)),
		attribute.Int("result.total", result.TotalItems),
		attribute.Bool("result.widened", result.Widened),
	)
	s.metrics.ObserveRecommendation(string(criteria.Source), result.Widened, time.Since(start))
	s.logger.InfoContext(ctx, "recommendations served",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"criteria_source", criteria.Source,
		"total", result.TotalItems,
		"widened", result.Widened,
	)

	return &RecommendationPage{
		Items:          matcher.Records(result.Items),
		Page:           result.Page,
		Size:           result.Size,
		TotalItems:     result.TotalItems,
		TotalPages:     result.TotalPages,
		Widened:        result.Widened,
		CriteriaSource: criteria.Source,
		Explanation:    criteria.Explanation,
		Criteria:       &criteria,
	}, nil
}

// Refresh recomputes the first page of recommendations for a user. The
// lifecycle trigger calls it when an event becomes due.
func (s *Service) Refresh(ctx context.Context, userID id.UserID) error {
	page, err := s.GetPersonalizedRecommendations(ctx, userID, 0, refreshPageSize)
	if err != nil {
		return err
	}
	if page.Degraded {
		return dErrors.New(dErrors.CodeUnavailable, "catalog unavailable, recommendations not refreshed")
	}
	s.logger.InfoContext(ctx, "recommendations refreshed",
		"user_id", userID.String(),
		"count", len(page.Items),
		"criteria_source", page.CriteriaSource,
	)
	return nil
}

// Browse lists active benefits by region and keyword without personalization.
func (s *Service) Browse(ctx context.Context, q BrowseQuery) (*RecommendationPage, error) {
	if err := validatePage(q.Page, q.Size); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "recommend.Browse",
		trace.WithAttributes(attribute.String("region", q.Region), attribute.String("keyword", q.Keyword)),
	)
	defer span.End()

	records, err := s.listActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog")
		return degradedPage(q.Page, q.Size), nil
	}
	query := matcher.Query{Region: models.NormalizeRegion(q.Region), Strict: true}
	if q.Keyword != "" {
		query.IncludeKeywords = []string{q.Keyword}
	}
	result := matcher.Match(matcher.Benefits(records), query, q.Page, q.Size)
	return &RecommendationPage{
		Items:      matcher.Records(result.Items),
		Page:       result.Page,
		Size:       result.Size,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *Service) GetBenefit(ctx context.Context, benefitID id.BenefitID) (*models.BenefitRecord, error) {
	rec, err := s.catalog.FindByID(ctx, benefitID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "benefit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load benefit")
	}
	return rec, nil
}

func (s *Service) buildProfile(ctx context.Context, userID id.UserID) (*models.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "recommend.BuildProfile")
	defer span.End()
	p, err := s.profiles.BuildProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
	}
	return p, err
}

func (s *Service) generate(ctx context.Context, p *models.UserProfile) models.FilterCriteria {
	ctx, span := s.tracer.Start(ctx, "recommend.GenerateCriteria")
	defer span.End()
	c := s.criteria.Generate(ctx, p)
	span.SetAttributes(attribute.String("criteria.source", string(c.Source)))
	return c
}

func (s *Service) listActive(ctx context.Context) ([]*models.BenefitRecord, error) {
	ctx, span := s.tracer.Start(ctx, "recommend.ListActive")
	defer span.End()
	records, err := s.catalog.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "failed to read catalog",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read catalog")
	}
	return records, nil
}

func degradedPage(page, size int) *RecommendationPage {
	return &RecommendationPage{Items: []*models.BenefitRecord{}, Page: page, Size: size, Degraded: true}
}

func validatePage(page, size int) error {
	if page < 0 {
		return dErrors.New(dErrors.CodeValidation, "page must be zero or greater")
	}
	if size <= 0 {
		return dErrors.New(dErrors.CodeValidation, "size must be greater than zero")
	}
	return nil
}
