package service

import (
	"welfarehub/internal/savings/models"
)

// product adapts a savings product to matcher.Matchable. The monthly
// amount range plays the role of the age bounds and the interest rate
// orders results.
type product struct {
	*models.Product
}

func (p product) MatchID() string      { return p.ID.String() }
func (p product) MatchName() string    { return p.Name }
func (p product) MatchRegion() *string { return nil }
func (p product) NeedsChildren() bool  { return false }
func (p product) MatchTypes() []string { return []string{p.Bank} }
func (p product) LifeTags() []string   { return nil }
func (p product) Active() bool         { return true }

func (p product) Bounds() (lo, hi *int64) {
	return p.MinMonthlyAmount, p.MaxMonthlyAmount
}

func (p product) SearchText() []string {
	return []string{p.TargetCustomer}
}

func (p product) Amount() *int64 {
	bp := p.RateBasisPoints()
	return &bp
}
