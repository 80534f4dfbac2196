// Package service selects due and upcoming lifecycle events and drives the
// re-recommendation pass for them.
//
// Processing is at-least-once: an event is marked processed only after the
// owning user's recommendation pass succeeds, so failures are retried on the
// next sweep.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"welfarehub/internal/lifecycle/models"
	"welfarehub/internal/welfare/metrics"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	audit "welfarehub/pkg/platform/audit"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/requestcontext"
)

const (
	maxChildNameRunes   = 50
	maxDescriptionRunes = 500
)

type Store interface {
	Create(ctx context.Context, e *models.Event) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	ListDue(ctx context.Context, asOf time.Time) ([]*models.Event, error)
	ListUnprocessedOn(ctx context.Context, dates []time.Time, userID *id.UserID) ([]*models.Event, error)
	MarkProcessed(ctx context.Context, eventID id.EventID, at time.Time) error
}

// Refresher runs a recommendation pass for one user.
type Refresher interface {
	Refresh(ctx context.Context, userID id.UserID) error
}

// NewEvent is the creation-hook payload.
type NewEvent struct {
	UserID      id.UserID
	Type        string
	EventDate   time.Time
	ChildName   string
	Description string
}

type Service struct {
	store     Store
	refresher Refresher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	leadTimes []int
	auditor   audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLeadTimes overrides the day offsets used by the upcoming queries.
func WithLeadTimes(days ...int) Option {
	return func(s *Service) { s.leadTimes = days }
}

func New(store Store, refresher Refresher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		refresher: refresher,
		logger:    slog.Default(),
		leadTimes: models.LeadTimes,
		auditor:   audit.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record validates and stores a new event. A repeat of an existing
// (user, type, date, child) tuple is a conflict.
func (s *Service) Record(ctx context.Context, in NewEvent) (*models.Event, error) {
	e, err := s.buildEvent(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementLifecycle("duplicate")
			return nil, dErrors.New(dErrors.CodeConflict, "lifecycle event already recorded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record lifecycle event")
	}
	s.metrics.IncrementLifecycle("recorded")
	s.logger.InfoContext(ctx, "lifecycle event recorded",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", e.UserID.String(),
		"event_id", e.ID.String(),
		"event_type", string(e.Type),
		"event_date", e.EventDate.Format(time.DateOnly),
	)
	return e, nil
}

func (s *Service) buildEvent(ctx context.Context, in NewEvent) (*models.Event, error) {
	if in.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	eventType, ok := models.ParseEventType(in.Type)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown event_type")
	}
	if in.EventDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "event_date is required")
	}
	childName := strings.TrimSpace(in.ChildName)
	if utf8.RuneCountInString(childName) > maxChildNameRunes {
		return nil, dErrors.New(dErrors.CodeValidation, "child_name is too long")
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > maxDescriptionRunes {
		return nil, dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	return &models.Event{
		ID:          id.NewEventID(),
		UserID:      in.UserID,
		Type:        eventType,
		EventDate:   models.DateOf(in.EventDate),
		ChildName:   childName,
		Description: description,
		CreatedAt:   requestcontext.Now(ctx),
	}, nil
}

// FindDueEvents returns unprocessed events dated on or before asOf's date.
// It has no side effects.
func (s *Service) FindDueEvents(ctx context.Context, asOf time.Time) ([]*models.Event, error) {
	events, err := s.store.ListDue(ctx, models.DateOf(asOf))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list due lifecycle events")
	}
	return events, nil
}

// FindUpcomingEvents returns unprocessed events exactly one lead time after
// asOf's date, nearest first.
func (s *Service) FindUpcomingEvents(ctx context.Context, asOf time.Time) ([]models.UpcomingEvent, error) {
	return s.upcoming(ctx, asOf, nil)
}

// FindUpcomingForUser is FindUpcomingEvents restricted to one user.
func (s *Service) FindUpcomingForUser(ctx context.Context, userID id.UserID, asOf time.Time) ([]models.UpcomingEvent, error) {
	return s.upcoming(ctx, asOf, &userID)
}

func (s *Service) upcoming(ctx context.Context, asOf time.Time, userID *id.UserID) ([]models.UpcomingEvent, error) {
	today := models.DateOf(asOf)
	dates := make([]time.Time, 0, len(s.leadTimes))
	for _, days := range s.leadTimes {
		dates = append(dates, today.AddDate(0, 0, days))
	}
	events, err := s.store.ListUnprocessedOn(ctx, dates, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list upcoming lifecycle events")
	}
	out := make([]models.UpcomingEvent, 0, len(events))
	for _, e := range events {
		out = append(out, models.UpcomingEvent{
			Event:     e,
			DaysUntil: int(e.EventDate.Sub(today).Hours() / 24),
		})
	}
	return out, nil
}

// MarkProcessed flags an event as handled. Marking twice is a no-op.
func (s *Service) MarkProcessed(ctx context.Context, eventID id.EventID) error {
	if err := s.store.MarkProcessed(ctx, eventID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "lifecycle event not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark lifecycle event processed")
	}
	return nil
}

// ProcessDue is the sweep job. Each user with due events gets one
// recommendation pass; their events are marked processed only if it
// succeeds. A user that no longer exists cannot succeed on retry, so those
// events are marked processed with a warning.
func (s *Service) ProcessDue(ctx context.Context, now time.Time) error {
	ctx = requestcontext.WithTime(ctx, now)
	events, err := s.FindDueEvents(ctx, now)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	order := make([]id.UserID, 0)
	byUser := make(map[id.UserID][]*models.Event)
	for _, e := range events {
		if _, ok := byUser[e.UserID]; !ok {
			order = append(order, e.UserID)
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	var errs []error
	processed := 0
	for _, userID := range order {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		userEvents := byUser[userID]
		if err := s.refresher.Refresh(ctx, userID); err != nil {
			if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				s.metrics.IncrementLifecycle("failed")
				s.logger.ErrorContext(ctx, "lifecycle refresh failed, will retry",
					"user_id", userID.String(),
					"events", len(userEvents),
					"error", err,
				)
				errs = append(errs, fmt.Errorf("refresh user %s: %w", userID, err))
				continue
			}
			s.logger.WarnContext(ctx, "lifecycle events for unknown user, marking processed",
				"user_id", userID.String(),
				"events", len(userEvents),
			)
		}
		for _, e := range userEvents {
			if err := s.MarkProcessed(ctx, e.ID); err != nil {
				errs = append(errs, fmt.Errorf("mark event %s: %w", e.ID, err))
				continue
			}
			processed++
			s.metrics.IncrementLifecycle("processed")
		}
	}

	s.logger.InfoContext(ctx, "lifecycle sweep finished",
		"due", len(events),
		"users", len(order),
		"processed", processed,
		"failed", len(errs),
	)
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionLifecycleSweep,
		Subject: fmt.Sprintf("due=%d processed=%d", len(events), processed),
		Outcome: sweepOutcome(len(errs)),
	})
	return errors.Join(errs...)
}

func sweepOutcome(failed int) string {
	if failed > 0 {
		return "partial"
	}
	return "completed"
}
