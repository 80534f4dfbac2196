package memory

import (
	"context"
	"slices"
	"sync"

	id "welfarehub/pkg/domain"
	audit "welfarehub/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, events ...audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// ListByUser returns the user's events, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].UserID == userID {
			out = append(out, s.events[i])
		}
	}
	return truncate(sortNewest(out), limit), nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.events)
	slices.Reverse(out)
	return truncate(sortNewest(out), limit), nil
}

func sortNewest(events []audit.Event) []audit.Event {
	slices.SortStableFunc(events, func(a, b audit.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return events
}

func truncate(events []audit.Event, limit int) []audit.Event {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}
