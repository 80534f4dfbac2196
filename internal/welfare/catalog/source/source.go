// Package source adapts external welfare catalogs to a common paging contract.
package source

import (
	"context"
	"fmt"
	"sort"

	"welfarehub/internal/welfare/models"
)

// PageRequest asks a source for one page. PageNo is one-based, matching the
// upstream catalogs.
type PageRequest struct {
	PageNo        int
	PageSize      int
	RegionCode    string
	SubRegionCode string
}

// Page is one normalized page. Dropped counts upstream rows that failed to
// parse and were discarded.
type Page struct {
	Records    []*models.BenefitRecord
	TotalCount int
	HasMore    bool
	Dropped    int
}

// Source is implemented by every external catalog.
type Source interface {
	ID() string
	Scope() models.ServiceScope
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}

// Registry maintains the configured sources.
type Registry struct {
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source; IDs must be unique.
func (r *Registry) Register(s Source) error {
	if _, exists := r.sources[s.ID()]; exists {
		return fmt.Errorf("source %s already registered", s.ID())
	}
	r.sources[s.ID()] = s
	return nil
}

func (r *Registry) Get(id string) (Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// ByScope returns the sources for a scope ordered by ID.
func (r *Registry) ByScope(scope models.ServiceScope) []Source {
	var out []Source
	for _, s := range r.sources {
		if s.Scope() == scope {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Registry) Len() int {
	return len(r.sources)
}
