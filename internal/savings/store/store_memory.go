// Package store persists savings products.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"welfarehub/internal/savings/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	products map[id.ProductID]*models.Product
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{products: make(map[id.ProductID]*models.Product)}
}

// Save inserts or replaces a product by ID.
func (s *InMemoryStore) Save(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, productID id.ProductID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListAll returns every product ordered by name.
func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}
