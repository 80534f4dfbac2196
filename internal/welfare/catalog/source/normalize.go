package source

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"welfarehub/internal/welfare/models"
	wstrings "welfarehub/pkg/platform/strings"
)

// rawRecord is the source-neutral intermediate form fed to buildRecord.
type rawRecord struct {
	sourceID    string
	name        string
	description string
	scope       models.ServiceScope
	region      string
	subRegion   string
	lifeArray   string
	targets     string
	themes      string
	provision   string
	department  string
	contact     string
	detailURL   string
	method      string
}

const (
	maxNameLen        = 500
	maxDescriptionLen = 4000
)

var (
	ageRangeRe = regexp.MustCompile(`(\d{1,3})\s*(?:세|살)?\s*[~∼\-]\s*(\d{1,3})\s*(?:세|살)`)
	ageMinRe   = regexp.MustCompile(`(\d{1,3})\s*(?:세|살)\s*(?:이상|부터)`)
	ageMaxRe   = regexp.MustCompile(`(\d{1,3})\s*(?:세|살)\s*(이하|미만|까지)`)
	amountRe   = regexp.MustCompile(`(\d[\d,]*)\s*(만\s*원|천\s*원|원)`)
)

// buildRecord normalizes one upstream row. Rows without an ID or name are
// rejected.
func buildRecord(r rawRecord) (*models.BenefitRecord, bool) {
	sourceID := strings.TrimSpace(r.sourceID)
	name := strings.TrimSpace(r.name)
	if sourceID == "" || name == "" || len(name) > maxNameLen {
		return nil, false
	}
	desc := wstrings.TruncateUTF8(strings.TrimSpace(r.description), maxDescriptionLen)

	themes := wstrings.SplitTerms(r.themes)
	targets := wstrings.SplitTerms(r.targets)
	lifeTags := parseLifeTags(r.lifeArray)

	text := name + " " + desc + " " + r.targets
	minAge, maxAge := parseAgeBounds(text)

	category := r.provision
	if len(themes) > 0 {
		category = themes[0]
	}

	rec := &models.BenefitRecord{
		SourceID:          sourceID,
		Name:              name,
		Description:       desc,
		Category:          strings.TrimSpace(category),
		LifeCycleTags:     lifeTags,
		ServiceScope:      r.scope,
		MinAge:            minAge,
		MaxAge:            maxAge,
		RequiresChildren:  requiresChildren(lifeTags, targets, text),
		SupportAmount:     parseSupportAmount(desc),
		Keywords:          wstrings.DedupeAndTrim(slices.Concat(themes, targets, []string{r.provision})),
		Status:            models.StatusActive,
		TargetAudience:    strings.Join(targets, ", "),
		ApplicationMethod: strings.TrimSpace(r.method),
		Department:        strings.TrimSpace(r.department),
		Contact:           strings.TrimSpace(r.contact),
		DetailURL:         strings.TrimSpace(r.detailURL),
	}
	if region := models.NormalizeRegion(r.region); region != "" {
		rec.Region = &region
	}
	if sub := strings.TrimSpace(r.subRegion); sub != "" {
		rec.SubRegion = &sub
	}
	return rec, true
}

// parseLifeTags splits the life stage list, keeping the pregnancy stage
// intact since its name contains a separator.
func parseLifeTags(raw string) []string {
	compact := strings.ReplaceAll(raw, " ", "")
	var tags []string
	for _, variant := range []string{"임신·출산", "임신ㆍ출산", "임신출산", "임신/출산"} {
		if strings.Contains(compact, variant) {
			tags = append(tags, models.LifePregnancy)
			compact = strings.ReplaceAll(compact, variant, ",")
		}
	}
	tags = append(tags, wstrings.SplitTerms(compact)...)
	return wstrings.DedupeAndTrim(tags)
}

func parseAgeBounds(text string) (*int, *int) {
	if m := ageRangeRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo <= hi && hi <= 120 {
			return &lo, &hi
		}
	}
	var minAge, maxAge *int
	if m := ageMinRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		if v <= 120 {
			minAge = &v
		}
	}
	if m := ageMaxRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		if m[2] == "미만" {
			v--
		}
		if v >= 0 && v <= 120 {
			maxAge = &v
		}
	}
	return minAge, maxAge
}

// parseSupportAmount returns the largest amount mentioned, in won.
func parseSupportAmount(text string) *int64 {
	var best *int64
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		unit := int64(1)
		switch strings.ReplaceAll(m[2], " ", "") {
		case "만원":
			unit = 10_000
		case "천원":
			unit = 1_000
		}
		if n > math.MaxInt64/unit {
			continue
		}
		n *= unit
		if best == nil || n > *best {
			v := n
			best = &v
		}
	}
	return best
}

func requiresChildren(lifeTags, targets []string, text string) bool {
	for _, t := range targets {
		if strings.Contains(t, "다자녀") || strings.Contains(t, "한부모") {
			return true
		}
	}
	childStage := false
	for _, t := range lifeTags {
		if t == models.LifeInfant || t == models.LifeChild {
			childStage = true
		}
	}
	return childStage && strings.Contains(text, "자녀")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
