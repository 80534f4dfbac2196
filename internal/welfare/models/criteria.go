package models

// CriteriaSource records where a FilterCriteria came from.
type CriteriaSource string

const (
	CriteriaSourceAI       CriteriaSource = "AI"
	CriteriaSourceCache    CriteriaSource = "CACHE"
	CriteriaSourceFallback CriteriaSource = "FALLBACK"
)

// FilterCriteria is the canonical typed result of criteria generation.
//
// MaxAge carries the applicant's age: a record matches when its own age bounds
// contain it. RequiresChildren carries whether the applicant has children; when
// false, records that require children are excluded. Explanation, Confidence
// and Source are kept for observability and never influence matching.
type FilterCriteria struct {
	IncludeKeywords  []string       `json:"include_keywords"`
	ExcludeKeywords  []string       `json:"exclude_keywords"`
	LifeCycles       []string       `json:"life_cycles"`
	ServiceTypes     []string       `json:"service_types"`
	Region           string         `json:"region,omitempty"`
	MinSupportAmount *int64         `json:"min_support_amount,omitempty"`
	MaxAge           *int           `json:"max_age,omitempty"`
	RequiresChildren *bool          `json:"requires_children,omitempty"`
	Explanation      string         `json:"explanation,omitempty"`
	Confidence       float64        `json:"confidence"`
	Source           CriteriaSource `json:"source"`
}
