// Package metrics defines and registers all custom Prometheus metrics for the
// user management API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init via promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "usermgmt"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// GuardRejectionsTotal counts requests rejected by the Auth or Role guard.
// Labels:
//   - guard: "auth" or "role"
//   - reason: "unauthenticated", "token_invalid", "token_expired", "forbidden", "misconfigured"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected before reaching a handler.",
	},
	[]string{"guard", "reason"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UserMutationsTotal counts successful user writes.
// Label:
//   - action: "user.created", "user.updated" or "user.deleted"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of successful user mutations, by action.",
	},
	[]string{"action"},
)

// UserCacheTotal counts by-id cache lookups.
// Label:
//   - result: "hit" or "miss"
var UserCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_cache_total",
		Help:      "Total number of user cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by outcome.
// Label:
//   - result: "recorded", "error", "invalid" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events handled, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
