package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	id "welfarehub/pkg/domain"
)

// UserProfile is a point-in-time view of the facts used for matching. It is
// rebuilt for every request.
type UserProfile struct {
	UserID              id.UserID      `json:"user_id"`
	Age                 int            `json:"age"`
	SidoName            string         `json:"sido_name"`
	SigunguName         string         `json:"sigungu_name"`
	HasChildren         bool           `json:"has_children"`
	ChildrenCount       int            `json:"children_count"`
	Children            []ChildProfile `json:"children"`
	IsPregnant          bool           `json:"is_pregnant"`
	IsMarried           bool           `json:"is_married"`
	MonthlyIncome       int64          `json:"monthly_income"`
	TotalAssets         int64          `json:"total_assets"`
	PreferredCategories []string       `json:"preferred_categories"`
}

type ChildProfile struct {
	Name            string `json:"name"`
	Age             int    `json:"age"`
	SchoolType      string `json:"school_type"`
	HasSpecialNeeds bool   `json:"has_special_needs"`
}

// Fingerprint identifies profiles that would produce the same criteria.
// The user ID and child names are left out so equivalent households share
// cached criteria.
func (p *UserProfile) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%s|%t|%d|%t|%t|%d|%d|",
		p.Age, p.SidoName, p.SigunguName, p.HasChildren, p.ChildrenCount,
		p.IsPregnant, p.IsMarried, p.MonthlyIncome, p.TotalAssets)
	for _, c := range p.Children {
		fmt.Fprintf(&b, "%d:%s:%t;", c.Age, c.SchoolType, c.HasSpecialNeeds)
	}
	cats := slices.Clone(p.PreferredCategories)
	slices.Sort(cats)
	b.WriteString(strings.Join(cats, ","))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// LifeStages derives life stage tags from the profile by rule.
func (p *UserProfile) LifeStages() []string {
	var out []string
	add := func(tag string) {
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	if p.IsPregnant {
		add(LifePregnancy)
	}
	for _, c := range p.Children {
		switch {
		case c.Age <= 5:
			add(LifeInfant)
		case c.Age <= 12:
			add(LifeChild)
		case c.Age <= 18:
			add(LifeTeen)
		}
	}
	switch {
	case p.Age >= 65:
		add(LifeSenior)
	case p.Age >= 35:
		add(LifeMiddleAge)
	case p.Age >= 19:
		add(LifeYouth)
	}
	return out
}
