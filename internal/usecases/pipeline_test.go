package usecases

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
)

type stubDetector struct {
	candidates []entities.AddressCandidate
}

func (s *stubDetector) Detect(string) []entities.AddressCandidate {
	return s.candidates
}

type stubAllowList struct {
	allowed map[string]bool
}

func (s *stubAllowList) IsWhitelisted(address string) bool {
	return s.allowed[address]
}

type stubSink struct {
	events []entities.ViolationEvent
	full   bool
}

func (s *stubSink) Submit(event entities.ViolationEvent) bool {
	if s.full {
		return false
	}
	s.events = append(s.events, event)
	return true
}

func candidate(address string, family entities.Family) entities.AddressCandidate {
	return entities.AddressCandidate{
		Address:         address,
		Family:          family,
		Confidence:      entities.ConfidenceHigh,
		RiskLevel:       entities.RiskLow,
		DetectionMethod: "exact_pattern",
	}
}

func TestProcessTextQueuesViolations(t *testing.T) {
	sink := &stubSink{}
	p := NewViolationPipeline(
		slog.Default(),
		&stubDetector{candidates: []entities.AddressCandidate{
			candidate("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", entities.FamilyBTC),
		}},
		&stubAllowList{allowed: map[string]bool{}},
		sink,
		"client-123",
	)

	queued := p.ProcessText("pay to 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	require.Equal(t, 1, queued)
	require.Len(t, sink.events, 1)

	event := sink.events[0]
	require.Equal(t, "client-123", event.ClientID)
	require.True(t, strings.HasPrefix(event.EventID, "client-123_"))
	require.Equal(t, "BTC", event.AddressType)
	require.Equal(t, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", event.Address)
	require.Equal(t, "low", event.RiskLevel)
	require.False(t, event.CreatedAt.IsZero())
}

func TestProcessTextSkipsWhitelisted(t *testing.T) {
	sink := &stubSink{}
	p := NewViolationPipeline(
		slog.Default(),
		&stubDetector{candidates: []entities.AddressCandidate{
			candidate("allowed-address-000000000000000000", entities.FamilyBTC),
			candidate("blocked-address-000000000000000000", entities.FamilyETH),
		}},
		&stubAllowList{allowed: map[string]bool{"allowed-address-000000000000000000": true}},
		sink,
		"client-123",
	)

	queued := p.ProcessText("two addresses here")
	require.Equal(t, 1, queued)
	require.Len(t, sink.events, 1)
	require.Equal(t, "blocked-address-000000000000000000", sink.events[0].Address)
}

func TestProcessTextTruncatesExcerpt(t *testing.T) {
	sink := &stubSink{}
	p := NewViolationPipeline(
		slog.Default(),
		&stubDetector{candidates: []entities.AddressCandidate{
			candidate("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", entities.FamilyBTC),
		}},
		&stubAllowList{allowed: map[string]bool{}},
		sink,
		"client-123",
	)

	long := strings.Repeat("а", 2000) // кириллица, проверяем срез по рунам
	p.ProcessText(long)

	require.Len(t, sink.events, 1)
	require.Equal(t, excerptLimit, len([]rune(sink.events[0].Excerpt)))
}

func TestProcessTextQueueFull(t *testing.T) {
	sink := &stubSink{full: true}
	p := NewViolationPipeline(
		slog.Default(),
		&stubDetector{candidates: []entities.AddressCandidate{
			candidate("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", entities.FamilyBTC),
		}},
		&stubAllowList{allowed: map[string]bool{}},
		sink,
		"client-123",
	)

	// Переполнение очереди не останавливает обработку, событие теряется
	require.Equal(t, 0, p.ProcessText("text"))
	require.Empty(t, sink.events)
}

func TestProcessTextNoCandidates(t *testing.T) {
	sink := &stubSink{}
	p := NewViolationPipeline(slog.Default(), &stubDetector{}, &stubAllowList{}, sink, "client-123")

	require.Equal(t, 0, p.ProcessText("nothing interesting"))
	require.Empty(t, sink.events)
}
