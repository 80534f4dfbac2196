// Package profile assembles the UserProfile the recommender matches against.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	familymodels "welfarehub/internal/family/models"
	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/platform/strings"
	"welfarehub/pkg/requestcontext"
)

type UserReader interface {
	FindUser(ctx context.Context, userID id.UserID) (*familymodels.User, error)
}

type FamilyReader interface {
	ListChildren(ctx context.Context, userID id.UserID) ([]*familymodels.Child, error)
}

type FinanceReader interface {
	LatestSnapshot(ctx context.Context, userID id.UserID, asOf time.Time) (*familymodels.FinancialSnapshot, error)
}

type Aggregator struct {
	users   UserReader
	family  FamilyReader
	finance FinanceReader
	logger  *slog.Logger
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

func New(users UserReader, family FamilyReader, finance FinanceReader, opts ...Option) *Aggregator {
	a := &Aggregator{
		users:   users,
		family:  family,
		finance: finance,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildProfile reads the household of userID and derives a profile as of
// the request time. It has no side effects.
func (a *Aggregator) BuildProfile(ctx context.Context, userID id.UserID) (*models.UserProfile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user_id is required")
	}
	now := requestcontext.Now(ctx)

	user, err := a.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	var (
		children []*familymodels.Child
		snapshot *familymodels.FinancialSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		children, err = a.family.ListChildren(gctx, userID)
		return err
	})
	g.Go(func() error {
		snap, err := a.finance.LatestSnapshot(gctx, userID, now)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		snapshot = snap
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.ErrorContext(ctx, "failed to load household",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load household")
	}

	return assemble(user, children, snapshot, now), nil
}

func assemble(user *familymodels.User, children []*familymodels.Child, snap *familymodels.FinancialSnapshot, now time.Time) *models.UserProfile {
	p := &models.UserProfile{
		UserID:              user.ID,
		SidoName:            models.NormalizeRegion(user.SidoName),
		SigunguName:         user.SigunguName,
		IsMarried:           user.IsMarried,
		IsPregnant:          user.IsPregnant,
		PreferredCategories: strings.DedupeAndTrim(user.PreferredCategories),
		Children:            make([]models.ChildProfile, 0, len(children)),
	}
	if user.BirthDate != nil {
		p.Age = familymodels.AgeAt(*user.BirthDate, now)
	}
	for _, c := range children {
		p.Children = append(p.Children, models.ChildProfile{
			Name:            c.Name,
			Age:             familymodels.AgeAt(c.BirthDate, now),
			SchoolType:      c.SchoolType,
			HasSpecialNeeds: c.HasSpecialNeeds,
		})
	}
	p.ChildrenCount = len(p.Children)
	p.HasChildren = p.ChildrenCount > 0
	if snap != nil {
		p.MonthlyIncome = snap.MonthlyIncome
		p.TotalAssets = snap.TotalAssets
	}
	return p
}
