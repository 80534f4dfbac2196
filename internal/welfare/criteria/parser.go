package criteria

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"welfarehub/internal/welfare/models"
	pstrings "welfarehub/pkg/platform/strings"
)

var (
	ErrNoJSON = errors.New("no JSON object in model output")

	fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")
	digitsOnly   = regexp.MustCompile(`[^0-9.\-]`)
)

// Parse extracts FilterCriteria from free-form model output. The first JSON
// object wins, fenced or bare. Fields in the wrong shape are coerced and
// anything unusable falls back to a permissive zero value. Only output with
// no decodable object is an error.
func Parse(output string) (*models.FilterCriteria, error) {
	raw, rest, ok := extractObject(output)
	if !ok {
		return nil, ErrNoJSON
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, errors.Join(ErrNoJSON, err)
	}

	c := &models.FilterCriteria{
		IncludeKeywords: stringList(lookup(fields, "include_keywords", "includeKeywords", "keywords")),
		ExcludeKeywords: stringList(lookup(fields, "exclude_keywords", "excludeKeywords")),
		LifeCycles:      stringList(lookup(fields, "life_cycles", "lifeCycles", "lifecycle")),
		ServiceTypes:    stringList(lookup(fields, "service_types", "serviceTypes")),
		Region:          models.NormalizeRegion(stringValue(lookup(fields, "region", "sido"))),
		Explanation:     strings.TrimSpace(stringValue(lookup(fields, "explanation", "reason"))),
		Confidence:      clamp01(floatValue(lookup(fields, "confidence"))),
	}
	if v, ok := intValue(lookup(fields, "min_support_amount", "minSupportAmount")); ok && v > 0 {
		c.MinSupportAmount = &v
	}
	if v, ok := intValue(lookup(fields, "max_age", "maxAge")); ok && v >= 0 && v < 150 {
		age := int(v)
		c.MaxAge = &age
	}
	if b, ok := boolValue(lookup(fields, "requires_children", "requiresChildren")); ok {
		c.RequiresChildren = &b
	}
	if c.Explanation == "" {
		c.Explanation = strings.TrimSpace(rest)
	}
	return c, nil
}

// extractObject returns the first JSON object and the text around it.
func extractObject(s string) (obj, rest string, ok bool) {
	if m := fencePattern.FindStringSubmatchIndex(s); m != nil {
		return s[m[2]:m[3]], s[:m[0]] + s[m[1]:], true
	}
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		if end := matchBrace(s, start); end > 0 {
			return s[start : end+1], s[:start] + s[end+1:], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", "", false
}

// matchBrace finds the brace closing the one at open, skipping strings.
func matchBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func lookup(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return pstrings.SplitTerms(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return pstrings.DedupeAndTrim(out)
	case float64, bool:
		return []string{stringValue(t)}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	}
	return ""
}

func floatValue(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(digitsOnly.ReplaceAllString(t, ""), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

// intValue accepts numbers and numeric strings such as "300,000원" or "30만원".
func intValue(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case string:
		multiplier := 1.0
		if strings.Contains(t, "만") {
			multiplier = 10_000
		}
		f, err := strconv.ParseFloat(digitsOnly.ReplaceAllString(t, ""), 64)
		if err != nil {
			return 0, false
		}
		return int64(f * multiplier), true
	}
	return 0, false
}

func boolValue(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "예", "네", "있음":
			return true, true
		case "false", "no", "n", "아니오", "아니요", "없음":
			return false, true
		}
	case float64:
		return t != 0, true
	}
	return false, false
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
