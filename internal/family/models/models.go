// Package models holds the household records the welfare pipeline reads:
// the account holder, their children and financial snapshots.
package models

import (
	"time"

	id "welfarehub/pkg/domain"
)

type User struct {
	ID                  id.UserID  `json:"id"`
	Name                string     `json:"name"`
	BirthDate           *time.Time `json:"birth_date,omitempty"`
	SidoName            string     `json:"sido_name"`
	SigunguName         string     `json:"sigungu_name"`
	IsMarried           bool       `json:"is_married"`
	IsPregnant          bool       `json:"is_pregnant"`
	PreferredCategories []string   `json:"preferred_categories"`
	CreatedAt           time.Time  `json:"created_at"`
}

type Child struct {
	ID              string    `json:"id"`
	UserID          id.UserID `json:"user_id"`
	Name            string    `json:"name"`
	BirthDate       time.Time `json:"birth_date"`
	SchoolType      string    `json:"school_type"`
	HasSpecialNeeds bool      `json:"has_special_needs"`
}

type FinancialSnapshot struct {
	UserID        id.UserID `json:"user_id"`
	MonthlyIncome int64     `json:"monthly_income"`
	TotalAssets   int64     `json:"total_assets"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// AgeAt returns full years between birth and now (international age). A future birth date yields 0.
func AgeAt(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.In(birth.Location()).Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
