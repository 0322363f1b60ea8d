// Package metrics defines the custom Prometheus metrics for the whisperbox
// API. It is the single source of truth for metric names, labels, and help
// strings. Metrics are registered with the default registry on import and
// exposed by the echoprometheus handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "whisperbox"

// ── Registration metrics ──────────────────────────────────────────────────────

// RegistrationStepsTotal counts registration requests by step and outcome.
// Labels:
//   - step: "sign_up", "resend", "verify"
//   - outcome: "ok", or the error kind (e.g. "conflict", "expired_code", "delivery")
var RegistrationStepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_steps_total",
		Help:      "Total number of registration steps, by step and outcome.",
	},
	[]string{"step", "outcome"},
)

// VerificationEmailsTotal counts delivery attempts of verification codes.
// Label:
//   - result: "sent" or "failed"
var VerificationEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_emails_total",
		Help:      "Total number of verification email delivery attempts.",
	},
	[]string{"result"},
)

// ── Message metrics ───────────────────────────────────────────────────────────

// MessagesSubmittedTotal counts send-message outcomes.
// Label:
//   - result: "accepted", "harmful", "replayed", or the error kind
var MessagesSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_submitted_total",
		Help:      "Total number of anonymous message submissions, by result.",
	},
	[]string{"result"},
)

// ModerationDuration measures round trips to the content-safety service.
// Label:
//   - outcome: "ok" or "error"
var ModerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "moderation_duration_seconds",
		Help:      "Duration of content moderation requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Link reconciler metrics ───────────────────────────────────────────────────

// LinkRepairsTotal counts orphaned-message repairs.
// Label:
//   - result: "relinked" or "error"
var LinkRepairsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_repairs_total",
		Help:      "Total number of orphaned message repairs, by result.",
	},
	[]string{"result"},
)

// LinkRepairQueueDepth tracks pending repairs in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var LinkRepairQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "link_repair_queue_depth",
		Help:      "Current number of repairs pending in each reconciler worker channel.",
	},
	[]string{"worker_id"},
)
