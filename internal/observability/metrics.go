package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bookingwatch", Name: "poll_cycles_total", Help: "Poll cycles completed, by outcome"},
		[]string{"outcome"}, // success | error
	)
	PollCyclesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "bookingwatch", Name: "poll_cycles_skipped_total", Help: "Ticks skipped because the previous fetch was still in flight"},
	)
	PollStaleDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "bookingwatch", Name: "poll_stale_discarded_total", Help: "Poll responses discarded for arriving after a newer one was applied"},
	)
	PollLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "bookingwatch", Name: "poll_fetch_duration_seconds", Help: "Booking Store fetch latency", Buckets: prometheus.DefBuckets},
	)

	SessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "bookingwatch", Name: "sessions_active", Help: "Currently running view sessions"},
		[]string{"kind"}, // tracking | list | live
	)
	TransitionsObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bookingwatch", Name: "transitions_observed_total", Help: "Booking status transitions observed by polling"},
		[]string{"to"},
	)
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bookingwatch", Name: "events_published_total", Help: "UI events fanned out to subscribers"},
		[]string{"type"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bookingwatch", Name: "http_requests_total", Help: "Gateway HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookingwatch",
			Name:      "http_request_duration_seconds",
			Help:      "Gateway HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
