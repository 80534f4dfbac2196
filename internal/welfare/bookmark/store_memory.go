package bookmark

import (
	"context"
	"slices"
	"sync"
	"time"

	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	bookmarks map[id.BookmarkID]*models.Bookmark
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{bookmarks: make(map[id.BookmarkID]*models.Bookmark)}
}

func (s *InMemoryStore) Save(_ context.Context, b *models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookmarks {
		if existing.UserID == b.UserID && existing.TargetKey() == b.TargetKey() {
			return sentinel.ErrConflict
		}
	}
	cp := *b
	s.bookmarks[b.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, bookmarkID id.BookmarkID) (*models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[bookmarkID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Bookmark, 0)
	for _, b := range s.bookmarks {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Bookmark) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID.String() < b.ID.String() {
			return -1
		}
		return 1
	})
	return out, nil
}

func (s *InMemoryStore) UpdateMemo(_ context.Context, bookmarkID id.BookmarkID, memo string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[bookmarkID]
	if !ok {
		return sentinel.ErrNotFound
	}
	b.Memo = memo
	b.UpdatedAt = now
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, bookmarkID id.BookmarkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookmarks[bookmarkID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bookmarks, bookmarkID)
	return nil
}
