package criteria

import "welfarehub/internal/welfare/models"

const fallbackExplanation = "AI 추천을 사용할 수 없어 거주 지역과 생애주기 기준으로 추천합니다."

// Fallback builds rule-based criteria from the profile: a region-only filter
// plus life stages derived by rule. Keywords are left empty so nothing is
// excluded.
func Fallback(p *models.UserProfile) models.FilterCriteria {
	return models.FilterCriteria{
		Region:      p.SidoName,
		LifeCycles:  p.LifeStages(),
		Explanation: fallbackExplanation,
		Source:      models.CriteriaSourceFallback,
	}
}
