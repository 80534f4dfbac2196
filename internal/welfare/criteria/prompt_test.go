package criteria

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"welfarehub/internal/welfare/models"
)

func promptProfile() *models.UserProfile {
	return &models.UserProfile{
		Age:                 36,
		SidoName:            "부산광역시",
		SigunguName:         "해운대구",
		IsMarried:           true,
		HasChildren:         true,
		ChildrenCount:       2,
		Children:            []models.ChildProfile{{Name: "서연", Age: 3}, {Name: "도윤", Age: 9, SchoolType: "초등학교"}},
		MonthlyIncome:       4_000_000,
		PreferredCategories: []string{"보육", "교육"},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(promptProfile(), 0)
	assert.Contains(t, p, "36세")
	assert.Contains(t, p, "부산광역시 해운대구")
	assert.Contains(t, p, "자녀: 2명 (3세, 9세 초등학교)")
	assert.Contains(t, p, "```json")
	assert.NotContains(t, p, "서연", "child names stay out of the prompt")
}

func TestBuildPromptCeiling(t *testing.T) {
	full := BuildPrompt(promptProfile(), 0)
	limit := len(full) - 10

	p := BuildPrompt(promptProfile(), limit)
	assert.LessOrEqual(t, len(p), limit)
	assert.NotContains(t, p, "관심 분야", "trailing sections are dropped first")
	assert.True(t, strings.HasSuffix(p, promptInstructions))

	tiny := BuildPrompt(promptProfile(), 50)
	assert.LessOrEqual(t, len(tiny), 50)
	assert.True(t, utf8.ValidString(tiny))
}
