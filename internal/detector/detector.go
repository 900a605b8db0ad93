package detector

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
	"github.com/clipsentry/screen-monitor-system/agent/internal/metrics"
)

const (
	methodExactPattern      = "exact_pattern"
	methodSuspiciousGeneric = "suspicious_pattern_generic"
	methodSuspiciousKeyword = "suspicious_pattern_keyword"

	minTokenLength = 20
	maxTokenLength = 120
)

// Detector ищет криптовалютные адреса в произвольном тексте.
// Детектор не имеет состояния, зависящего от вызовов: один и тот же текст
// всегда дает один и тот же результат.
type Detector struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDetector(registry *Registry, logger *slog.Logger) *Detector {
	return &Detector{
		registry: registry,
		logger:   logger,
	}
}

// Detect выполняет двухпроходную классификацию текста: сначала структурные
// паттерны по семействам валют, затем обобщенные паттерны для неизвестных
// форматов. Повторы одного адреса схлопываются, структурное совпадение
// всегда побеждает обобщенное.
func (d *Detector) Detect(text string) []entities.AddressCandidate {
	if text == "" {
		return nil
	}
	metrics.DetectorScansTotal.Inc()

	seen := make(map[string]struct{})
	var out []entities.AddressCandidate

	// Первый проход: структурные паттерны в фиксированном порядке семейств
	for _, family := range d.registry.families {
		for _, re := range d.registry.structural[family] {
			for _, match := range re.FindAllString(text, -1) {
				if _, ok := seen[match]; ok {
					continue
				}
				if !d.validate(match, family) {
					continue
				}
				seen[match] = struct{}{}
				out = append(out, entities.AddressCandidate{
					Address:         match,
					Family:          family,
					Confidence:      entities.ConfidenceHigh,
					RiskLevel:       d.registry.assessRisk(text, match),
					DetectionMethod: methodExactPattern,
				})
				metrics.DetectorAddressesFound.WithLabelValues(string(entities.ConfidenceHigh)).Inc()
			}
		}
	}

	// Второй проход: подозрительные токены без жесткой структуры
	for _, re := range d.registry.generic {
		for _, match := range re.FindAllString(text, -1) {
			d.appendSuspicious(&out, seen, text, match, methodSuspiciousGeneric)
		}
	}
	for _, re := range d.registry.keyworded {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			d.appendSuspicious(&out, seen, text, groups[1], methodSuspiciousKeyword)
		}
	}

	if len(out) > 0 {
		d.logger.Debug("addresses detected in text",
			slog.Int("count", len(out)),
			slog.Int("text_length", len(text)))
	}

	return out
}

func (d *Detector) appendSuspicious(out *[]entities.AddressCandidate, seen map[string]struct{}, text, token, method string) {
	if _, ok := seen[token]; ok {
		return
	}
	if !d.isLikelyCryptoAddress(token) {
		return
	}
	seen[token] = struct{}{}
	*out = append(*out, entities.AddressCandidate{
		Address:         token,
		Family:          entities.FamilyUnknown,
		Confidence:      entities.ConfidenceMedium,
		RiskLevel:       d.registry.assessRisk(text, token),
		DetectionMethod: method,
	})
	metrics.DetectorAddressesFound.WithLabelValues(string(entities.ConfidenceMedium)).Inc()
}

// validate отсекает ложные срабатывания структурных паттернов: проверяет
// допустимую длину для семейства и, где возможно, криптографическую
// корректность формата.
func (d *Detector) validate(address string, family entities.Family) bool {
	if len(address) < 10 {
		return false
	}
	if limits, ok := d.registry.lengthLimits[family]; ok {
		if len(address) < limits[0] || len(address) > limits[1] {
			return false
		}
	}

	switch family {
	case entities.FamilyETH, entities.FamilyMATIC, entities.FamilyETC:
		return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
	case entities.FamilyTRX:
		if !strings.HasPrefix(address, "T") {
			return false
		}
		_, err := base58.Decode(address)
		return err == nil
	case entities.FamilyBTC:
		if strings.HasPrefix(address, "bc1") {
			return true
		}
		_, err := base58.Decode(address)
		return err == nil
	case entities.FamilyLTC, entities.FamilyDOGE:
		if strings.HasPrefix(address, "ltc1") {
			return true
		}
		_, err := base58.Decode(address)
		return err == nil
	case entities.FamilySOL:
		_, err := solana.PublicKeyFromBase58(address)
		return err == nil
	}

	return true
}

// isLikelyCryptoAddress грубо оценивает, похож ли токен на криптоадрес:
// буквенно-цифровой, разумной длины, со смесью букв и цифр, и не похож
// на обычный хеш.
func (d *Detector) isLikelyCryptoAddress(token string) bool {
	if len(token) < minTokenLength || len(token) > maxTokenLength {
		return false
	}
	if !d.registry.tokenCharset.MatchString(token) {
		return false
	}

	var hasDigit, hasAlpha bool
	for _, r := range token {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasAlpha = true
		}
	}
	if !hasDigit || !hasAlpha {
		return false
	}

	if d.registry.hashLike.MatchString(token) {
		return false
	}
	return true
}
