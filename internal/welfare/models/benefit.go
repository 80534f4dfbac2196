package models

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
	"time"

	id "welfarehub/pkg/domain"
)

// ServiceScope distinguishes the central catalog from regional catalogs.
type ServiceScope string

const (
	ScopeCentral ServiceScope = "CENTRAL"
	ScopeLocal   ServiceScope = "LOCAL"
)

func (s ServiceScope) IsValid() bool {
	return s == ScopeCentral || s == ScopeLocal
}

// Status is the catalog lifecycle of a benefit record. Records are never
// deleted; they move to STALE when they stop appearing upstream.
type Status string

const (
	StatusActive        Status = "ACTIVE"
	StatusStale         Status = "STALE"
	StatusPendingReview Status = "PENDING_REVIEW"
)

// Life stage tags used by the upstream catalogs and by criteria.
const (
	LifeInfant    = "영유아"
	LifeChild     = "아동"
	LifeTeen      = "청소년"
	LifeYouth     = "청년"
	LifeMiddleAge = "중장년"
	LifeSenior    = "노년"
	LifePregnancy = "임신·출산"
)

// BenefitRecord is one externally published welfare program held in the
// local catalog. (SourceID, ServiceScope) is the natural key.
type BenefitRecord struct {
	ID                id.BenefitID `json:"id"`
	SourceID          string       `json:"source_id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	Category          string       `json:"category"`
	LifeCycleTags     []string     `json:"life_cycle_tags"`
	ServiceScope      ServiceScope `json:"service_scope"`
	Region            *string      `json:"region"`
	SubRegion         *string      `json:"sub_region,omitempty"`
	MinAge            *int         `json:"min_age,omitempty"`
	MaxAge            *int         `json:"max_age,omitempty"`
	RequiresChildren  bool         `json:"requires_children"`
	SupportAmount     *int64       `json:"support_amount,omitempty"`
	Keywords          []string     `json:"keywords"`
	Status            Status       `json:"status"`
	TargetAudience    string       `json:"target_audience,omitempty"`
	ApplicationMethod string       `json:"application_method,omitempty"`
	Department        string       `json:"department,omitempty"`
	Contact           string       `json:"contact,omitempty"`
	DetailURL         string       `json:"detail_url,omitempty"`
	LastSyncedAt      time.Time    `json:"last_synced_at"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (b *BenefitRecord) IsActive() bool {
	return b.Status == StatusActive
}

// IsNationwide reports whether the record applies to every region.
func (b *BenefitRecord) IsNationwide() bool {
	return b.Region == nil || *b.Region == ""
}

// ContentHash digests the upstream-derived fields. Identity, status and
// timestamps are excluded so an identical re-sync hashes the same.
func (b *BenefitRecord) ContentHash() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(b.Name)
	write(b.Description)
	write(b.Category)
	write(strings.Join(sortedCopy(b.LifeCycleTags), "\x1f"))
	write(string(b.ServiceScope))
	write(derefString(b.Region))
	write(derefString(b.SubRegion))
	write(derefInt(b.MinAge))
	write(derefInt(b.MaxAge))
	write(strconv.FormatBool(b.RequiresChildren))
	if b.SupportAmount != nil {
		write(strconv.FormatInt(*b.SupportAmount, 10))
	} else {
		write("")
	}
	write(strings.Join(sortedCopy(b.Keywords), "\x1f"))
	write(b.TargetAudience)
	write(b.ApplicationMethod)
	write(b.Department)
	write(b.Contact)
	write(b.DetailURL)
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns a deep copy so stores never hand out shared slices.
func (b *BenefitRecord) Clone() *BenefitRecord {
	if b == nil {
		return nil
	}
	c := *b
	c.LifeCycleTags = slices.Clone(b.LifeCycleTags)
	c.Keywords = slices.Clone(b.Keywords)
	c.Region = clonePtr(b.Region)
	c.SubRegion = clonePtr(b.SubRegion)
	c.MinAge = clonePtr(b.MinAge)
	c.MaxAge = clonePtr(b.MaxAge)
	c.SupportAmount = clonePtr(b.SupportAmount)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
