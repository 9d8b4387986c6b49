// Package metrics defines and registers all custom Prometheus metrics for the
// Activity Tracker web server. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto; /metrics exposes them alongside the echo HTTP
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracker"

// ── Backend client metrics ────────────────────────────────────────────────────

// BackendRequestDuration measures round trips to the Activity Tracker API.
// Labels:
//   - method: HTTP method of the outbound call
//   - outcome: status class ("2xx", "4xx", "5xx") or "network"
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of outbound calls to the Activity Tracker API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "outcome"},
)

// TokenRefreshTotal counts silent refresh attempts.
// Label:
//   - result: "success", "failure", "missing" (no refresh token) or "shared"
//     (caller joined an in-flight refresh)
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsActive tracks the number of browser sessions held in the registry.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of browser sessions held in memory.",
	},
)

// AuthEventsTotal counts auth lifecycle transitions.
// Label:
//   - type: the AuthEventType (e.g. "login_succeeded", "session_expired")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of auth lifecycle events, by type.",
	},
	[]string{"type"},
)

// LoginThrottledTotal counts login attempts rejected by the rate limiter.
var LoginThrottledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_throttled_total",
		Help:      "Total number of login attempts rejected by the per-client rate limiter.",
	},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - route: the matched route path (e.g. "/admin/users")
//   - result: "allowed", "denied", "unauthenticated" or "pending"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by route and result.",
	},
	[]string{"route", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of auth events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts events dropped because a worker channel was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of auth events dropped because the audit queue was full.",
	},
)

// AuditErrorsTotal counts events that failed persistence.
var AuditErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of auth events that failed to persist.",
	},
)
