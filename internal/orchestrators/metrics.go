package orchestrators

import (
	"usbtop/internal/shared/metrics"
)

var (
	metricTicksTotal = metrics.NewCounter(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubOrchestrator,
			Name:      "ticks_total",
		},
	)

	// metricSourceConditionsTotal counts warning and fatal conditions raised by failing sources.
	metricSourceConditionsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubOrchestrator,
			Name:      "source_conditions_total",
		},
		[]string{"severity", metrics.FieldErrorCode},
	)

	// metricEventsRoutedTotal counts events handed to the aggregator. error_code is
	// SYS_9000 when handling the event panicked.
	metricEventsRoutedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubOrchestrator,
			Name:      "events_routed_total",
		},
		[]string{metrics.FieldErrorCode},
	)
)
