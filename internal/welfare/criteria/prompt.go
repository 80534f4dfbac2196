package criteria

import (
	"fmt"
	"strings"

	"welfarehub/internal/welfare/models"
	pstrings "welfarehub/pkg/platform/strings"
)

const promptInstructions = `위 사용자에게 맞는 복지 서비스를 찾기 위한 검색 조건을 만들어 주세요.
아래 형식의 JSON 객체 하나를 ` + "```json" + ` 코드 블록으로 답하고, 그 아래에 한두 문장으로 이유를 설명하세요.
{
  "include_keywords": ["포함할 키워드"],
  "exclude_keywords": ["제외할 키워드"],
  "life_cycles": ["영유아", "아동", "청소년", "청년", "중장년", "노년", "임신·출산" 중 해당 항목],
  "service_types": ["CENTRAL 또는 LOCAL 또는 분야명"],
  "region": "시도명",
  "min_support_amount": 원 단위 정수 또는 null,
  "max_age": 사용자 나이,
  "requires_children": 자녀가 있으면 true,
  "confidence": 0과 1 사이 숫자,
  "explanation": "추천 이유"
}`

// BuildPrompt renders the profile as a Korean prompt. Sections are dropped
// from the end until the prompt fits maxBytes; the instructions always stay.
func BuildPrompt(p *models.UserProfile, maxBytes int) string {
	sections := []string{
		fmt.Sprintf("나이: %d세", p.Age),
		fmt.Sprintf("거주지: %s %s", p.SidoName, p.SigunguName),
		fmt.Sprintf("결혼 여부: %s, 임신 여부: %s", yesNo(p.IsMarried), yesNo(p.IsPregnant)),
		fmt.Sprintf("월 소득: %d원, 총 자산: %d원", p.MonthlyIncome, p.TotalAssets),
		childrenSection(p),
	}
	if len(p.PreferredCategories) > 0 {
		sections = append(sections, "관심 분야: "+strings.Join(p.PreferredCategories, ", "))
	}

	header := "[사용자 정보]\n"
	for {
		prompt := header + strings.Join(sections, "\n") + "\n\n" + promptInstructions
		if maxBytes <= 0 || len(prompt) <= maxBytes || len(sections) == 1 {
			return pstrings.TruncateUTF8(prompt, maxBytes)
		}
		sections = sections[:len(sections)-1]
	}
}

func childrenSection(p *models.UserProfile) string {
	if !p.HasChildren {
		return "자녀: 없음"
	}
	parts := make([]string, 0, len(p.Children))
	for _, c := range p.Children {
		desc := fmt.Sprintf("%d세", c.Age)
		if c.SchoolType != "" {
			desc += " " + c.SchoolType
		}
		if c.HasSpecialNeeds {
			desc += " (장애)"
		}
		parts = append(parts, desc)
	}
	return fmt.Sprintf("자녀: %d명 (%s)", p.ChildrenCount, strings.Join(parts, ", "))
}

func yesNo(b bool) string {
	if b {
		return "예"
	}
	return "아니오"
}
