package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Transitions counts applied status transitions by target status
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "civicpulse_report_transitions_total",
		Help: "Applied report status transitions",
	}, []string{"from", "to"})

	// TransitionRejections counts refused transitions by reason (invalid, conflict, forbidden)
	TransitionRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "civicpulse_report_transition_rejections_total",
		Help: "Refused report status transitions",
	}, []string{"reason"})

	DuplicateChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "civicpulse_duplicate_checks_total",
		Help: "Duplicate checks by outcome (match, none, degraded)",
	}, []string{"outcome"})

	ScoreEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "civicpulse_score_events_total",
		Help: "Score events appended, by reason",
	}, []string{"reason"})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "civicpulse_notifications_total",
		Help: "Notifications emitted, by type",
	}, []string{"type"})

	// SideEffectFailures counts side effects dropped after all retries
	SideEffectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "civicpulse_side_effect_failures_total",
		Help: "Side effects that exhausted their retries",
	}, []string{"effect"})

	RouteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "civicpulse_route_duration_seconds",
		Help:    "Task routing latency",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "civicpulse_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		Transitions,
		TransitionRejections,
		DuplicateChecks,
		ScoreEvents,
		Notifications,
		SideEffectFailures,
		RouteDuration,
		HTTPRequests,
	)
}
