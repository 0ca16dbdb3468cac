package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Session metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_sessions_started_total",
			Help: "Workout sessions started",
		},
		[]string{"kind"},
	)

	SessionsFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_sessions_finished_total",
			Help: "Workout sessions persisted as completed workouts",
		},
	)

	SessionsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_sessions_cancelled_total",
			Help: "Workout sessions discarded without saving",
		},
	)

	FinishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_finish_failures_total",
			Help: "Finish attempts that failed to persist",
		},
	)

	FinishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liftlog_finish_duration_seconds",
			Help:    "Time spent writing a completed workout",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	StaleResolves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_stale_resolves_total",
			Help: "Previous-value results dropped because their target changed",
		},
	)

	// Rest timer metrics
	RestTimers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_rest_timers_total",
			Help: "Rest timer transitions by outcome",
		},
		[]string{"outcome"},
	)

	AlertFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_rest_alert_failures_total",
			Help: "Rest timer alerts that failed and were ignored",
		},
	)

	// History metrics
	PreviousLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftlog_previous_lookups_total",
			Help: "Previous-value lookups by result",
		},
		[]string{"result"},
	)

	SuggestCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_suggest_cache_hits_total",
			Help: "Exercise name suggestion cache hits",
		},
	)

	SuggestCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liftlog_suggest_cache_misses_total",
			Help: "Exercise name suggestion cache misses",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsFinished,
		SessionsCancelled,
		FinishFailures,
		FinishDuration,
		StaleResolves,
		RestTimers,
		AlertFailures,
		PreviousLookups,
		SuggestCacheHits,
		SuggestCacheMisses,
	)
}
