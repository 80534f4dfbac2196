package matcher

import (
	"welfarehub/internal/welfare/models"
)

// Benefit adapts a catalog record to Matchable.
type Benefit struct {
	*models.BenefitRecord
}

// Benefits wraps records for matching.
func Benefits(records []*models.BenefitRecord) []Benefit {
	out := make([]Benefit, len(records))
	for i, r := range records {
		out[i] = Benefit{r}
	}
	return out
}

// Records unwraps matched benefits.
func Records(items []Benefit) []*models.BenefitRecord {
	out := make([]*models.BenefitRecord, len(items))
	for i, b := range items {
		out[i] = b.BenefitRecord
	}
	return out
}

func (b Benefit) MatchID() string      { return b.ID.String() }
func (b Benefit) MatchName() string    { return b.Name }
func (b Benefit) MatchRegion() *string { return b.Region }
func (b Benefit) NeedsChildren() bool  { return b.RequiresChildren }
func (b Benefit) LifeTags() []string   { return b.LifeCycleTags }
func (b Benefit) Amount() *int64       { return b.SupportAmount }
func (b Benefit) Active() bool         { return b.IsActive() }

func (b Benefit) Bounds() (lo, hi *int64) {
	return widen(b.MinAge), widen(b.MaxAge)
}

func (b Benefit) MatchTypes() []string {
	return []string{string(b.ServiceScope), b.Category}
}

func (b Benefit) SearchText() []string {
	return append([]string{b.Name, b.Description, b.Category, b.TargetAudience}, b.Keywords...)
}

func widen(p *int) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}
