// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hyperengineering/reel/internal/types"
)

var (
	// Selections counts videos handed out.
	// Labels:
	//   - mode: "algorithmic" or "category"
	Selections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_selections_total",
			Help: "Total number of videos selected",
		},
		[]string{"mode"},
	)

	// ExhaustionResets counts viewed-set resets triggered by an exhausted scope.
	ExhaustionResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_exhaustion_resets_total",
			Help: "Total number of viewed-set resets after every video in scope was shown",
		},
		[]string{"mode"},
	)

	// MarkViewedFailures counts viewed-set writes that failed after a
	// selection was already made.
	MarkViewedFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reel_mark_viewed_failures_total",
			Help: "Total number of failed viewed-set writes after selection",
		},
	)

	// Feedback counts interaction events by type. Unknown types share the
	// "other" label to keep cardinality bounded.
	Feedback = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_feedback_total",
			Help: "Total number of interaction events recorded",
		},
		[]string{"interaction_type"},
	)

	// CatalogScanErrors counts catalog enumerations that failed and degraded
	// to an empty catalog.
	CatalogScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_catalog_scan_errors_total",
			Help: "Total number of failed catalog enumerations",
		},
		[]string{"source"},
	)

	// CatalogVideos reports the video count seen by the most recent enumeration.
	CatalogVideos = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reel_catalog_videos",
			Help: "Number of videos found by the latest catalog enumeration",
		},
		[]string{"source"},
	)
)

// ModeLabel maps a mode to its bounded label value.
func ModeLabel(m types.Mode) string {
	if m.IsAlgorithmic() {
		return "algorithmic"
	}
	return "category"
}

// InteractionLabel maps an interaction type to its bounded label value.
func InteractionLabel(t types.InteractionType) string {
	switch t {
	case types.InteractionLike, types.InteractionDislike, types.InteractionScroll, types.InteractionHate:
		return string(t)
	default:
		return "other"
	}
}
