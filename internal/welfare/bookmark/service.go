// Package bookmark lets users keep a list of benefits with a personal memo.
package bookmark

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	audit "welfarehub/pkg/platform/audit"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/requestcontext"
)

const maxMemoRunes = 500

type Store interface {
	Save(ctx context.Context, b *models.Bookmark) error
	FindByID(ctx context.Context, bookmarkID id.BookmarkID) (*models.Bookmark, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Bookmark, error)
	UpdateMemo(ctx context.Context, bookmarkID id.BookmarkID, memo string, now time.Time) error
	Delete(ctx context.Context, bookmarkID id.BookmarkID) error
}

type Catalog interface {
	FindByID(ctx context.Context, benefitID id.BenefitID) (*models.BenefitRecord, error)
}

// Target names the bookmarked benefit: a catalog record or an external ID.
type Target struct {
	BenefitID         *id.BenefitID
	ExternalBenefitID string
}

type Service struct {
	store   Store
	catalog Catalog
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

func New(store Store, catalog Catalog, opts ...Option) *Service {
	s := &Service{store: store, catalog: catalog, logger: slog.Default(), auditor: audit.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, userID id.UserID, target Target, memo string) (*models.Bookmark, error) {
	external := strings.TrimSpace(target.ExternalBenefitID)
	if (target.BenefitID == nil) == (external == "") {
		return nil, dErrors.New(dErrors.CodeValidation, "exactly one of benefit_id or external_benefit_id is required")
	}
	memo, err := normalizeMemo(memo)
	if err != nil {
		return nil, err
	}
	if target.BenefitID != nil {
		if _, err := s.catalog.FindByID(ctx, *target.BenefitID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "benefit not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load benefit")
		}
	}

	now := requestcontext.Now(ctx)
	b := &models.Bookmark{
		ID:                id.NewBookmarkID(),
		UserID:            userID,
		BenefitID:         target.BenefitID,
		ExternalBenefitID: external,
		Memo:              memo,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Save(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "benefit already bookmarked")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save bookmark")
	}
	s.logger.InfoContext(ctx, "bookmark created",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"bookmark_id", b.ID.String(),
	)
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionBookmarkCreated, UserID: userID, Subject: "bookmark:" + b.ID.String()})
	return b, nil
}

func (s *Service) UpdateMemo(ctx context.Context, userID id.UserID, bookmarkID id.BookmarkID, memo string) (*models.Bookmark, error) {
	memo, err := normalizeMemo(memo)
	if err != nil {
		return nil, err
	}
	b, err := s.owned(ctx, userID, bookmarkID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := s.store.UpdateMemo(ctx, bookmarkID, memo, now); err != nil {
		return nil, storeError(err, "failed to update bookmark")
	}
	b.Memo = memo
	b.UpdatedAt = now
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionBookmarkUpdated, UserID: userID, Subject: "bookmark:" + b.ID.String()})
	return b, nil
}

func (s *Service) Delete(ctx context.Context, userID id.UserID, bookmarkID id.BookmarkID) error {
	if _, err := s.owned(ctx, userID, bookmarkID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, bookmarkID); err != nil {
		return storeError(err, "failed to delete bookmark")
	}
	s.logger.InfoContext(ctx, "bookmark deleted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"bookmark_id", bookmarkID.String(),
	)
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionBookmarkDeleted, UserID: userID, Subject: "bookmark:" + bookmarkID.String()})
	return nil
}

// List returns the user's bookmarks, newest first.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Bookmark, error) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bookmarks")
	}
	return list, nil
}

// owned loads a bookmark and checks it belongs to userID.
func (s *Service) owned(ctx context.Context, userID id.UserID, bookmarkID id.BookmarkID) (*models.Bookmark, error) {
	b, err := s.store.FindByID(ctx, bookmarkID)
	if err != nil {
		return nil, storeError(err, "failed to load bookmark")
	}
	if b.UserID != userID {
		s.logger.WarnContext(ctx, "bookmark ownership check failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID.String(),
			"bookmark_id", bookmarkID.String(),
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "bookmark belongs to another user")
	}
	return b, nil
}

func normalizeMemo(memo string) (string, error) {
	memo = strings.TrimSpace(memo)
	if utf8.RuneCountInString(memo) > maxMemoRunes {
		return "", dErrors.New(dErrors.CodeValidation, "memo is too long")
	}
	return memo, nil
}

func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "bookmark not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
