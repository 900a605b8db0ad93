package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the detection-and-delivery pipeline. None of these are
// required for correctness, they only back the local /metrics endpoint.

var (
	// Detector
	DetectorScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "detector",
		Name:      "scans_total",
		Help:      "Total text scans performed",
	})

	DetectorAddressesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "detector",
		Name:      "addresses_found_total",
		Help:      "Total address candidates returned by the detector",
	}, []string{"confidence"})

	// Whitelist
	WhitelistSyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "whitelist",
		Name:      "syncs_total",
		Help:      "Total whitelist sync attempts",
	}, []string{"result"})

	WhitelistLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "whitelist",
		Name:      "lookups_total",
		Help:      "Total whitelist membership checks",
	}, []string{"result"})

	// Violations
	ViolationsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "violations",
		Name:      "submitted_total",
		Help:      "Total violation events accepted into the delivery queue",
	})

	ViolationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "violations",
		Name:      "dropped_total",
		Help:      "Total violation events rejected because the queue was full",
	})

	ViolationsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "violations",
		Name:      "delivered_total",
		Help:      "Total violation events acknowledged by the server",
	})

	ViolationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "violations",
		Name:      "delivery_failures_total",
		Help:      "Total failed delivery attempts",
	})

	ViolationsCachedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "violations",
		Name:      "cached_total",
		Help:      "Total violation events written to the disk overflow cache",
	})

	DeliveryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agent",
		Subsystem: "violations",
		Name:      "delivery_duration_seconds",
		Help:      "Duration of a single delivery attempt",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)
