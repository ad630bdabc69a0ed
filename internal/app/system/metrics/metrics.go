// internal/app/system/metrics/metrics.go

// Package metrics defines the Prometheus instruments the app records into
// and the HTTP middleware that feeds the request-level ones. Everything is
// registered on the default registry; bootstrap mounts promhttp on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skillhub"

var (
	// --- HTTP ---

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route",
		},
		[]string{"method", "route"},
	)

	// --- Collaboration lifecycle ---

	CollaborationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "collaborations_created_total",
			Help:      "Total number of collaborations created",
		},
	)

	RoleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "role_transitions_total",
			Help:      "Total number of role status transitions",
		},
		[]string{"from", "to"},
	)

	TransactionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "transaction_conflicts_total",
			Help:      "Total number of write conflicts surfaced to callers",
		},
	)

	TransactionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collab",
			Name:      "transaction_fallbacks_total",
			Help:      "Total number of multi-document writes run without a transaction",
		},
	)

	// --- Challenges ---

	ChallengesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenges",
			Name:      "generated_total",
			Help:      "Total number of challenges generated by type",
		},
		[]string{"type"},
	)

	ChallengesActivated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenges",
			Name:      "activated_total",
			Help:      "Total number of challenges activated by type and mode (scheduled, manual)",
		},
		[]string{"type", "mode"},
	)

	ChallengesArchived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "challenges",
			Name:      "archived_total",
			Help:      "Total number of challenges archived by type and reason (expired, superseded)",
		},
		[]string{"type", "reason"},
	)

	// --- Background jobs ---

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Total number of background job runs by job name and result (ok, error)",
		},
		[]string{"job", "result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Background job run duration by job name",
		},
		[]string{"job"},
	)

	// --- Operation monitor ---

	MonitorOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "operations_total",
			Help:      "Total number of role operations observed by type and status",
		},
		[]string{"type", "status"},
	)

	MonitorStreamErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "stream_errors_total",
			Help:      "Total number of change stream errors absorbed by the monitor",
		},
	)

	// --- Notifications ---

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Total number of notifications fanned out by event",
		},
		[]string{"event"},
	)

	NotificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "queue_depth",
			Help:      "Notifications waiting in the fan-out queue",
		},
	)

	// --- Cache ---

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by cache name",
		},
		[]string{"cache"},
	)
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latencies, labeled by the chi route
// pattern so path parameters don't explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
