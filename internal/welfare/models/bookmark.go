package models

import (
	"time"

	id "welfarehub/pkg/domain"
)

// Bookmark points at either a catalog record or an externally sourced
// benefit, never both.
type Bookmark struct {
	ID                id.BookmarkID `json:"id"`
	UserID            id.UserID     `json:"user_id"`
	BenefitID         *id.BenefitID `json:"benefit_id,omitempty"`
	ExternalBenefitID string        `json:"external_benefit_id,omitempty"`
	Memo              string        `json:"memo"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// TargetKey identifies the bookmarked benefit for duplicate detection.
func (b *Bookmark) TargetKey() string {
	if b.BenefitID != nil {
		return "catalog:" + b.BenefitID.String()
	}
	return "external:" + b.ExternalBenefitID
}
