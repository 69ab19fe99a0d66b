package aggregators

import (
	"usbtop/internal/shared/metrics"
)

const (
	evictReasonExplicit = "explicit"
	evictReasonStale    = "stale"
)

// metricEventsObservedTotal counts events routed into the aggregator, labelled by URB
// type. Submissions and errors are counted even though they add no bytes.
var (
	metricEventsObservedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "events_observed_total",
		},
		[]string{"urb_type"},
	)

	// metricKeysEvictedTotal counts removed device and bus keys. reason is "explicit" for
	// collaborator requests and "stale" for the idle ceiling.
	metricKeysEvictedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "keys_evicted_total",
		},
		[]string{"reason"},
	)
)
