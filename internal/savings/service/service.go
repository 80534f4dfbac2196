// Package service recommends savings products through the shared matcher.
package service

import (
	"context"
	"log/slog"
	"strings"

	"welfarehub/internal/savings/models"
	"welfarehub/internal/welfare/matcher"
	dErrors "welfarehub/pkg/domain-errors"
	audit "welfarehub/pkg/platform/audit"
	"welfarehub/pkg/requestcontext"
)

type Store interface {
	ListAll(ctx context.Context) ([]*models.Product, error)
	Save(ctx context.Context, p *models.Product) error
}

type Query struct {
	TargetCustomer string
	MonthlyAmount  *int64
	Page           int
	Size           int
}

type Page struct {
	Items      []*models.Product `json:"items"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	TotalItems int               `json:"total_items"`
	TotalPages int               `json:"total_pages"`
	Widened    bool              `json:"widened"`
}

type Service struct {
	store   Store
	logger  *slog.Logger
	auditor audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Service) { s.auditor = auditor }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default(), auditor: audit.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecommendSavings first looks for products that match both the target
// customer and the monthly amount. If none do, it falls back to products
// matching either one and marks the page widened. Results are ordered by
// interest rate, highest first.
func (s *Service) RecommendSavings(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "page must be zero or greater")
	}
	if q.Size <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "size must be greater than zero")
	}
	if q.MonthlyAmount != nil && *q.MonthlyAmount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "monthly_amount must not be negative")
	}
	target := strings.TrimSpace(q.TargetCustomer)

	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list savings products")
	}
	items := make([]product, len(all))
	for i, p := range all {
		items[i] = product{p}
	}

	prioritized := matcher.Query{Value: q.MonthlyAmount, Strict: true}
	if target != "" {
		prioritized.IncludeKeywords = []string{target}
	}
	res := matcher.Match(items, prioritized, q.Page, q.Size)
	if res.TotalItems == 0 && target != "" && q.MonthlyAmount != nil {
		res = matcher.Match(either(items, target, q.MonthlyAmount), matcher.Query{Strict: true}, q.Page, q.Size)
		res.Widened = res.TotalItems > 0
	}

	out := &Page{
		Items:      make([]*models.Product, len(res.Items)),
		Page:       res.Page,
		Size:       res.Size,
		TotalItems: res.TotalItems,
		TotalPages: res.TotalPages,
		Widened:    res.Widened,
	}
	for i, it := range res.Items {
		out.Items[i] = it.Product
	}
	s.logger.InfoContext(ctx, "savings recommendations served",
		"request_id", requestcontext.RequestID(ctx),
		"target", target,
		"total", out.TotalItems,
		"widened", out.Widened,
	)
	return out, nil
}

// either keeps products matching the target or the amount range.
func either(items []product, target string, amount *int64) []product {
	byTarget, _ := matcher.Filter(items, matcher.Query{IncludeKeywords: []string{target}, Strict: true})
	byAmount, _ := matcher.Filter(items, matcher.Query{Value: amount})
	seen := make(map[string]struct{}, len(items))
	out := make([]product, 0, len(items))
	for _, list := range [][]product{byTarget, byAmount} {
		for _, p := range list {
			if _, ok := seen[p.MatchID()]; ok {
				continue
			}
			seen[p.MatchID()] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Save validates and stores a product.
func (s *Service) Save(ctx context.Context, p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if p.MinMonthlyAmount != nil && p.MaxMonthlyAmount != nil && *p.MinMonthlyAmount > *p.MaxMonthlyAmount {
		return dErrors.New(dErrors.CodeValidation, "min_monthly_amount exceeds max_monthly_amount")
	}
	if p.InterestRate < 0 {
		return dErrors.New(dErrors.CodeValidation, "interest_rate must not be negative")
	}
	if err := s.store.Save(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save savings product")
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionSavingsProductSaved,
		ActorID: "admin",
		Subject: "savings_product:" + p.ID.String(),
	})
	return nil
}
