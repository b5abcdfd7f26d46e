// Package metrics defines and registers all custom Prometheus metrics for
// the shipping marketplace pricing pipeline. It is the single source of
// truth for metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Quoting metrics ───────────────────────────────────────────────────────────

// QuotesTotal counts per-carrier quote attempts.
// Labels:
//   - carrier: "fedex", "dhl", "ups"
//   - result: "ok" or "error"
var QuotesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carrier_quotes_total",
		Help:      "Total number of per-carrier quote attempts, by result.",
	},
	[]string{"carrier", "result"},
)

// CarrierCallDuration measures the latency of each live carrier API call.
var CarrierCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "carrier_call_duration_seconds",
		Help:      "Duration of live carrier rate API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"carrier"},
)

// RateCacheTotal counts rate cache lookups.
// Label:
//   - result: "hit" or "miss"
var RateCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_cache_total",
		Help:      "Total number of rate cache lookups, by result.",
	},
	[]string{"result"},
)

// FallbackQuotesTotal counts quotes served by the fallback ladder.
// Label:
//   - tier: "fallback" (database pricing row) or "default" (heuristic)
var FallbackQuotesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_quotes_total",
		Help:      "Total number of quotes served from the fallback ladder, by tier.",
	},
	[]string{"tier"},
)

// ── Pricing metrics ───────────────────────────────────────────────────────────

// CommissionFloorClampsTotal counts configured commissions clamped up to the
// floor. A non-zero rate indicates a misconfigured carrier commission.
var CommissionFloorClampsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commission_floor_clamps_total",
		Help:      "Total number of commission applications clamped to the floor percentage.",
	},
	[]string{"carrier"},
)

// CheckoutVerificationsTotal counts checkout price verifications.
// Label:
//   - outcome: "verified", "capped_high", "rejected_low", "payment_failed", "charged"
var CheckoutVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_verifications_total",
		Help:      "Total number of checkout price verifications, by outcome.",
	},
	[]string{"outcome"},
)

// SubmissionsTotal counts carrier shipment submissions after payment.
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carrier_submissions_total",
		Help:      "Total number of post-payment carrier submissions, by result.",
	},
	[]string{"carrier", "result"},
)

// AuditEventsTotal counts pricing audit events by pipeline stage.
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_audit_events_total",
		Help:      "Total number of pricing audit events emitted, by stage.",
	},
	[]string{"stage"},
)
