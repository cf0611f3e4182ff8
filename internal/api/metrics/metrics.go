// Package metrics defines all custom Prometheus metrics for the session
// gateway. It is the single source of truth for metric names, labels, and
// help strings; the echoprometheus middleware adds the standard HTTP set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionRefreshesTotal counts profile re-derivation cycles.
// Label:
//   - result: "ok", "anonymous", "invalid" (token/profile rejected) or "error"
var SessionRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refreshes_total",
		Help:      "Total number of session refresh cycles, labelled by outcome.",
	},
	[]string{"result"},
)

// ── Realtime metrics ──────────────────────────────────────────────────────────

// RealtimeConnected reports the current connection state: 1 while connected,
// 0 otherwise.
var RealtimeConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connected",
		Help:      "Whether the realtime connection is currently established (1/0).",
	},
)

// UnreadMessages tracks the published unread-message counter.
var UnreadMessages = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unread_messages",
		Help:      "Current unread message count summed across joined threads.",
	},
)

// MessagesReceivedTotal counts inbound realtime payloads.
// Label:
//   - type: "history" (one per message in a chatHistory batch) or "message"
var MessagesReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_received_total",
		Help:      "Total number of chat messages received over the realtime channel.",
	},
	[]string{"type"},
)

// MessagesDedupTotal counts deduplication decisions on live messages.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (fresh, processed)
var MessagesDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_dedup_total",
		Help:      "Total number of message deduplication checks, labelled by result.",
	},
	[]string{"result"},
)

// ReconnectsTotal counts transport-level reconnect attempts.
var ReconnectsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_reconnects_total",
		Help:      "Total number of realtime reconnect attempts.",
	},
)

// EligibilityChecksTotal counts connection-eligibility probes.
// Labels:
//   - role: "jobseeker" or "employer"
//   - result: "eligible", "ineligible" or "error"
var EligibilityChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "eligibility_checks_total",
		Help:      "Total number of realtime eligibility checks, labelled by role and result.",
	},
	[]string{"role", "result"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route-guard verdicts.
// Label:
//   - decision: "allow", "placeholder", "redirect_login" or "redirect_home"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, labelled by verdict.",
	},
	[]string{"decision"},
)
