// Package store persists lifecycle events.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"welfarehub/internal/lifecycle/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.EventID]*models.Event
	keys   map[string]id.EventID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[id.EventID]*models.Event),
		keys:   make(map[string]id.EventID),
	}
}

// Create returns sentinel.ErrConflict when the natural key is taken.
func (s *InMemoryStore) Create(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := e.NaturalKey()
	if _, ok := s.keys[key]; ok {
		return sentinel.ErrConflict
	}
	cp := *e
	s.events[e.ID] = &cp
	s.keys[key] = e.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ListDue returns unprocessed events dated on or before asOf.
func (s *InMemoryStore) ListDue(_ context.Context, asOf time.Time) ([]*models.Event, error) {
	return s.list(func(e *models.Event) bool {
		return !e.IsProcessed && !e.EventDate.After(asOf)
	}), nil
}

// ListUnprocessedOn returns unprocessed events dated on any of dates,
// optionally limited to one user.
func (s *InMemoryStore) ListUnprocessedOn(_ context.Context, dates []time.Time, userID *id.UserID) ([]*models.Event, error) {
	return s.list(func(e *models.Event) bool {
		if e.IsProcessed || (userID != nil && e.UserID != *userID) {
			return false
		}
		return slices.ContainsFunc(dates, e.EventDate.Equal)
	}), nil
}

// MarkProcessed is a no-op for an already processed event.
func (s *InMemoryStore) MarkProcessed(_ context.Context, eventID id.EventID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.IsProcessed {
		return nil
	}
	e.IsProcessed = true
	e.ProcessedAt = &at
	return nil
}

func (s *InMemoryStore) list(keep func(*models.Event) bool) []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0)
	for _, e := range s.events {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, compareEvents)
	return out
}

func compareEvents(a, b *models.Event) int {
	if c := a.EventDate.Compare(b.EventDate); c != 0 {
		return c
	}
	if a.CreatedAt.Compare(b.CreatedAt) != 0 {
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	switch {
	case a.ID.String() < b.ID.String():
		return -1
	case a.ID.String() > b.ID.String():
		return 1
	}
	return 0
}
