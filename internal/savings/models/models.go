// Package models defines savings products offered alongside welfare benefits.
package models

import (
	id "welfarehub/pkg/domain"
)

// Product is an installment savings product. A nil monthly bound is open.
type Product struct {
	ID               id.ProductID `json:"id"`
	Name             string       `json:"name"`
	Bank             string       `json:"bank"`
	TargetCustomer   string       `json:"target_customer"`
	MinMonthlyAmount *int64       `json:"min_monthly_amount,omitempty"`
	MaxMonthlyAmount *int64       `json:"max_monthly_amount,omitempty"`
	// InterestRate is an annual percentage, e.g. 3.5.
	InterestRate float64 `json:"interest_rate"`
}

// RateBasisPoints is the rate in thousandths of a percent, matching the
// column precision.
func (p *Product) RateBasisPoints() int64 {
	return int64(p.InterestRate*1000 + 0.5)
}
