// Package store persists household records. Reads are consumed by the
// welfare profile aggregator through narrow reader ports.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"welfarehub/internal/family/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
)

// InMemoryStore keeps households in maps. Used by tests and the local
// profile when no database is configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	users     map[id.UserID]*models.User
	children  map[id.UserID][]*models.Child
	snapshots map[id.UserID][]*models.FinancialSnapshot
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		users:     make(map[id.UserID]*models.User),
		children:  make(map[id.UserID][]*models.Child),
		snapshots: make(map[id.UserID][]*models.FinancialSnapshot),
	}
}

func (s *InMemoryStore) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	u.PreferredCategories = slices.Clone(user.PreferredCategories)
	s.users[user.ID] = &u
	return nil
}

func (s *InMemoryStore) AddChild(_ context.Context, child *models.Child) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[child.UserID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *child
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.children[child.UserID] = append(s.children[child.UserID], &c)
	return nil
}

func (s *InMemoryStore) RecordSnapshot(_ context.Context, snap *models.FinancialSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[snap.UserID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *snap
	s.snapshots[snap.UserID] = append(s.snapshots[snap.UserID], &cp)
	return nil
}

func (s *InMemoryStore) FindUser(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	cp.PreferredCategories = slices.Clone(u.PreferredCategories)
	return &cp, nil
}

// ListChildren returns children oldest first.
func (s *InMemoryStore) ListChildren(_ context.Context, userID id.UserID) ([]*models.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Child, 0, len(s.children[userID]))
	for _, c := range s.children[userID] {
		cp := *c
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *models.Child) int {
		return a.BirthDate.Compare(b.BirthDate)
	})
	return out, nil
}

// LatestSnapshot returns the most recent snapshot recorded at or before
// asOf, or sentinel.ErrNotFound.
func (s *InMemoryStore) LatestSnapshot(_ context.Context, userID id.UserID, asOf time.Time) (*models.FinancialSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.FinancialSnapshot
	for _, snap := range s.snapshots[userID] {
		if snap.RecordedAt.After(asOf) {
			continue
		}
		if latest == nil || snap.RecordedAt.After(latest.RecordedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}
