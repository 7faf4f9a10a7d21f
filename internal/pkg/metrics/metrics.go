// Package metrics defines and registers all custom Prometheus metrics for the
// tracking engine. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register themselves with the default Prometheus registry at init
// time via promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Lookup metrics ────────────────────────────────────────────────────────────

// LookupsTotal counts tracking lookups by outcome.
// Label:
//   - outcome: "ok", "not_found", "invalid", or "error"
var LookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Total number of tracking lookups, labelled by outcome.",
	},
	[]string{"outcome"},
)

// LookupDuration measures how long a full lookup takes, including geocoding
// and route resolution.
var LookupDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lookup_duration_seconds",
		Help:      "Duration of a tracking lookup from request to assembled snapshot.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// ── Provider metrics ──────────────────────────────────────────────────────────

// GeocodeRequestsTotal counts geocoding calls that reached the provider layer.
// Labels:
//   - op: "forward" or "reverse"
//   - result: "ok", "no_result", or "error"
var GeocodeRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_requests_total",
		Help:      "Total number of geocoding requests, by operation and result.",
	},
	[]string{"op", "result"},
)

// RouteResolutionsTotal counts routing calls that reached the provider layer.
// Label:
//   - result: "ok", "no_result", or "error"
var RouteResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_resolutions_total",
		Help:      "Total number of route resolutions, by result.",
	},
	[]string{"result"},
)

// BreakerState tracks the current circuit breaker state per provider.
// Values: 0=closed, 1=half-open, 2=open.
// Label:
//   - breaker: "geocoder" or "router"
var BreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "breaker_state",
		Help:      "Circuit breaker state per provider (0=closed, 1=half-open, 2=open).",
	},
	[]string{"breaker"},
)

// ── Live tracking metrics ─────────────────────────────────────────────────────

// TrackerUpdatesTotal counts live location samples as they move through the
// tracker pipeline.
// Label:
//   - result: "applied", "invalid", "stale", or "dropped"
var TrackerUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracker_updates_total",
		Help:      "Total number of live location samples, by pipeline result.",
	},
	[]string{"result"},
)

// LiveSessionsActive tracks the number of sessions currently streaming live
// location updates.
var LiveSessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions_active",
		Help:      "Number of tracking sessions with an active live stream.",
	},
)
