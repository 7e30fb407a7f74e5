package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Monitoring Session Metrics
	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitoring_sessions_created_total",
			Help: "Total number of monitoring sessions created",
		},
	)

	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_lifecycle_transitions_total",
			Help: "Total number of session lifecycle transitions",
		},
		[]string{"state"}, // CREATED, STARTED, MONITORING, COMPLETED, ERROR
	)

	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "change_stream_subscriptions_active",
			Help: "Current number of live change stream subscriptions",
		},
	)

	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_stream_events_total",
			Help: "Total number of change stream events folded into session state",
		},
		[]string{"kind"}, // session_changed, status_created, vital_created
	)

	VitalsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitals_ingested_total",
			Help: "Total number of vital snapshots written",
		},
	)

	RiskEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_evaluations_total",
			Help: "Total number of risk engine evaluations",
		},
		[]string{"level"}, // LOW, MODERATE, HIGH
	)

	// Cache Metrics
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache lookups by outcome",
		},
		[]string{"cache", "outcome"}, // hit/miss
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // database, cache, auth, stream, validation
	)
)

// MetricsMiddleware handles basic HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(
			method,
			path,
			strconv.Itoa(status),
		).Inc()

		HTTPRequestDuration.WithLabelValues(
			method,
			path,
		).Observe(duration)
	}
}

// Helper functions for tracking specific metrics

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackSessionCreated increments the created-sessions counter
func TrackSessionCreated() {
	SessionsCreatedTotal.Inc()
}

// TrackLifecycleTransition records a lifecycle state write
func TrackLifecycleTransition(state string) {
	LifecycleTransitionsTotal.WithLabelValues(state).Inc()
}

// TrackStreamEvent records a folded change stream event
func TrackStreamEvent(kind string) {
	StreamEventsTotal.WithLabelValues(kind).Inc()
}

// TrackVitalIngested increments the ingested-vitals counter
func TrackVitalIngested() {
	VitalsIngestedTotal.Inc()
}

// TrackRiskEvaluation records a risk engine run by resulting level
func TrackRiskEvaluation(level string) {
	RiskEvaluationsTotal.WithLabelValues(level).Inc()
}

// TrackCacheOperation records a cache hit or miss
func TrackCacheOperation(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheOperationsTotal.WithLabelValues(cache, outcome).Inc()
}

// TrackError increments the error counter by type
func TrackError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
