package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainerbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "code"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainerbook",
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	slotCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainerbook",
			Name:      "slot_cache_lookups_total",
			Help:      "Taken-slot cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions, slotCache)
	})
}

// IncHTTP counts a served request; code is the status class such as "2xx".
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

// IncTransition counts a lifecycle operation ("create", "confirm", ...) and its outcome
// ("ok" or an error kind).
func IncTransition(operation, outcome string) {
	transitions.WithLabelValues(operation, outcome).Inc()
}

// IncSlotCache counts a cache "hit" or "miss".
func IncSlotCache(result string) {
	slotCache.WithLabelValues(result).Inc()
}
