// Package matcher filters and ranks catalog items against criteria. One
// implementation serves welfare benefits and savings products through the
// Matchable view.
package matcher

import (
	"cmp"
	"slices"
	"strings"

	"welfarehub/internal/welfare/models"
	pstrings "welfarehub/pkg/platform/strings"
)

// MaxPageSize caps any requested page size.
const MaxPageSize = 100

// Matchable is the view of an item the matcher filters and ranks on.
type Matchable interface {
	MatchID() string
	MatchName() string
	// MatchRegion returns nil for nationwide items.
	MatchRegion() *string
	// Bounds is the inclusive range the applicant's value must fall into:
	// an age for benefits, a monthly amount for savings products.
	Bounds() (lo, hi *int64)
	NeedsChildren() bool
	// MatchTypes lists the values serviceTypes is compared against.
	MatchTypes() []string
	// SearchText lists the fields keywords are searched in.
	SearchText() []string
	LifeTags() []string
	Amount() *int64
	Active() bool
}

// Query is the matcher-side form of FilterCriteria.
type Query struct {
	Region          string
	Value           *int64
	HasChildren     *bool
	ServiceTypes    []string
	IncludeKeywords []string
	ExcludeKeywords []string
	LifeCycles      []string
	MinAmount       *int64
	// Strict disables widening; used for explicit searches.
	Strict bool
}

// FromCriteria maps criteria onto a query. MaxAge is the applicant's age and
// RequiresChildren whether the applicant has children.
func FromCriteria(c models.FilterCriteria) Query {
	q := Query{
		Region:          models.NormalizeRegion(c.Region),
		HasChildren:     c.RequiresChildren,
		ServiceTypes:    pstrings.DedupeAndTrimLower(c.ServiceTypes),
		IncludeKeywords: pstrings.DedupeAndTrim(c.IncludeKeywords),
		ExcludeKeywords: pstrings.DedupeAndTrim(c.ExcludeKeywords),
		LifeCycles:      pstrings.DedupeAndTrim(c.LifeCycles),
		MinAmount:       c.MinSupportAmount,
	}
	if c.MaxAge != nil {
		age := int64(*c.MaxAge)
		q.Value = &age
	}
	return q
}

type Page[T Matchable] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	Widened    bool `json:"widened"`
}

// Match filters, ranks and pages items. page is zero-based. A size of zero
// or less yields an empty page; sizes above MaxPageSize are capped.
func Match[T Matchable](items []T, q Query, page, size int) Page[T] {
	if size > MaxPageSize {
		size = MaxPageSize
	}
	out := Page[T]{Page: page, Size: size, Items: []T{}}
	if size <= 0 || page < 0 {
		return out
	}

	matched, widened := Filter(items, q)
	out.Widened = widened
	Rank(matched, q)

	out.TotalItems = len(matched)
	out.TotalPages = (len(matched) + size - 1) / size
	start := page * size
	if start >= len(matched) {
		return out
	}
	end := min(start+size, len(matched))
	out.Items = matched[start:end]
	return out
}

// Filter applies the hard filters and keywords without ranking or paging.
// When the include keywords leave nothing, the include filter is dropped and
// widened is reported. Exclude keywords always apply.
func Filter[T Matchable](items []T, q Query) (matched []T, widened bool) {
	candidates := make([]T, 0, len(items))
	for _, it := range items {
		if passesHard(it, q) && !containsAny(it, q.ExcludeKeywords) {
			candidates = append(candidates, it)
		}
	}
	if len(q.IncludeKeywords) == 0 {
		return candidates, false
	}
	matched = make([]T, 0, len(candidates))
	for _, it := range candidates {
		if containsAny(it, q.IncludeKeywords) {
			matched = append(matched, it)
		}
	}
	if len(matched) == 0 && len(candidates) > 0 && !q.Strict {
		return candidates, true
	}
	return matched, false
}

// Rank sorts items in place: priority tier first, then amount descending
// with missing amounts last, then name and ID ascending.
func Rank[T Matchable](items []T, q Query) {
	slices.SortStableFunc(items, func(a, b T) int {
		pa, pb := isPriority(a, q), isPriority(b, q)
		if pa != pb {
			if pa {
				return -1
			}
			return 1
		}
		if c := compareAmountDesc(a.Amount(), b.Amount()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.MatchName(), b.MatchName()); c != 0 {
			return c
		}
		return cmp.Compare(a.MatchID(), b.MatchID())
	})
}

func passesHard[T Matchable](it T, q Query) bool {
	if !it.Active() {
		return false
	}
	if q.Region != "" {
		if r := it.MatchRegion(); r != nil && models.NormalizeRegion(*r) != q.Region {
			return false
		}
	}
	if q.Value != nil {
		lo, hi := it.Bounds()
		if lo != nil && *q.Value < *lo {
			return false
		}
		if hi != nil && *q.Value > *hi {
			return false
		}
	}
	if q.HasChildren != nil && !*q.HasChildren && it.NeedsChildren() {
		return false
	}
	if len(q.ServiceTypes) > 0 {
		ok := false
		for _, t := range it.MatchTypes() {
			if slices.Contains(q.ServiceTypes, strings.ToLower(strings.TrimSpace(t))) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func containsAny[T Matchable](it T, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, field := range it.SearchText() {
		for _, term := range terms {
			if pstrings.ContainsFold(field, term) {
				return true
			}
		}
	}
	return false
}

// isPriority: life cycles overlap (or none requested) and the amount meets
// the minimum (or none requested).
func isPriority[T Matchable](it T, q Query) bool {
	if len(q.LifeCycles) > 0 {
		overlap := false
		for _, tag := range it.LifeTags() {
			if slices.Contains(q.LifeCycles, tag) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}
	if q.MinAmount != nil {
		amt := it.Amount()
		if amt == nil || *amt < *q.MinAmount {
			return false
		}
	}
	return true
}

func compareAmountDesc(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}
