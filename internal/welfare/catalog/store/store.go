// Package store persists the welfare catalog. Stores are pure I/O; the
// synchronizer decides what to write and when records go stale.
package store

import "welfarehub/internal/welfare/models"

// UpsertOutcome reports what an upsert did to the catalog.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota + 1
	OutcomeUpdated
	// OutcomeUnchanged means identical content; only last_synced_at moved.
	OutcomeUnchanged
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// UnseenFilter scopes a stale sweep to the slice of the catalog that one
// source run covered. Empty Region means the whole scope.
type UnseenFilter struct {
	Scope     models.ServiceScope
	Region    string
	SubRegion string
}

func (f UnseenFilter) matches(rec *models.BenefitRecord) bool {
	if rec.ServiceScope != f.Scope {
		return false
	}
	if f.Region != "" && (rec.Region == nil || *rec.Region != f.Region) {
		return false
	}
	if f.SubRegion != "" && (rec.SubRegion == nil || *rec.SubRegion != f.SubRegion) {
		return false
	}
	return true
}
