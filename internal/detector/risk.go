package detector

import (
	"strings"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
)

// Веса факторов риска и пороги уровней
const (
	scoreHighRiskKeyword = 10
	scoreAmountMention   = 5
	scorePrivacyPrefix   = 3
	scoreLongAddress     = 2

	thresholdCritical = 20
	thresholdHigh     = 10
	thresholdMedium   = 5

	longAddressLength = 60
)

// assessRisk вычисляет уровень риска адреса по окружающему тексту.
// Каждое совпавшее ключевое слово и каждый паттерн суммы учитываются
// независимо, поэтому текст с несколькими факторами быстро набирает балл.
func (r *Registry) assessRisk(text, address string) entities.RiskLevel {
	score := 0
	lowered := strings.ToLower(text)

	for _, keyword := range r.highRiskKeywords {
		if strings.Contains(lowered, keyword) {
			score += scoreHighRiskKeyword
		}
	}

	for _, re := range r.amountPatterns {
		if re.MatchString(text) {
			score += scoreAmountMention
		}
	}

	for _, prefix := range r.privacyPrefixes {
		if strings.HasPrefix(address, prefix) {
			score += scorePrivacyPrefix
			break
		}
	}

	if len(address) > longAddressLength {
		score += scoreLongAddress
	}

	switch {
	case score >= thresholdCritical:
		return entities.RiskCritical
	case score >= thresholdHigh:
		return entities.RiskHigh
	case score >= thresholdMedium:
		return entities.RiskMedium
	default:
		return entities.RiskLow
	}
}
