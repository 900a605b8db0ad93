package usecases

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/clipsentry/screen-monitor-system/agent/internal/core/ports"
	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
	"github.com/clipsentry/screen-monitor-system/agent/internal/shared"
)

// Длина сохраняемого фрагмента исходного текста
const excerptLimit = 500

// Detector классифицирует криптоадреса в тексте
type Detector interface {
	Detect(text string) []entities.AddressCandidate
}

// ViolationPipeline превращает сырой текст в события нарушений:
// классификация адресов, фильтрация по белому списку, постановка
// в очередь доставки
type ViolationPipeline struct {
	logger    *slog.Logger
	detector  Detector
	allowList ports.AllowList
	sink      ports.ViolationSink
	clientID  string
}

func NewViolationPipeline(
	logger *slog.Logger,
	detector Detector,
	allowList ports.AllowList,
	sink ports.ViolationSink,
	clientID string,
) *ViolationPipeline {
	return &ViolationPipeline{
		logger:    logger,
		detector:  detector,
		allowList: allowList,
		sink:      sink,
		clientID:  clientID,
	}
}

// ProcessText обрабатывает один снимок текста и возвращает число
// поставленных в очередь нарушений
func (p *ViolationPipeline) ProcessText(text string) int {
	candidates := p.detector.Detect(text)
	if len(candidates) == 0 {
		return 0
	}

	queued := 0
	for _, candidate := range candidates {
		if p.allowList.IsWhitelisted(candidate.Address) {
			p.logger.Debug("address whitelisted, skipping",
				"address", candidate.Address,
				"family", candidate.Family)
			continue
		}

		event := entities.ViolationEvent{
			EventID:     fmt.Sprintf("%s_%d", p.clientID, time.Now().UnixNano()),
			ClientID:    p.clientID,
			AddressType: string(candidate.Family),
			Address:     candidate.Address,
			Excerpt:     shared.Truncate(text, excerptLimit),
			RiskLevel:   string(candidate.RiskLevel),
			CreatedAt:   time.Now().UTC(),
		}

		if !p.sink.Submit(event) {
			p.logger.Warn("violation not queued, delivery queue full",
				"event_id", event.EventID,
				"address", candidate.Address)
			continue
		}

		queued++
		p.logger.Info("violation queued",
			"event_id", event.EventID,
			"family", candidate.Family,
			"risk_level", candidate.RiskLevel,
			"confidence", candidate.Confidence)
	}

	return queued
}
