package captures

import (
	"usbtop/internal/shared/metrics"
)

var (
	// metricDecodedRecordsTotal counts records seen by capture sources, labelled by the
	// decode error code (empty for records that became events).
	metricDecodedRecordsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubDecode,
			Name:      "records_total",
		},
		[]string{"format", metrics.FieldErrorCode},
	)

	// metricSessionsTotal counts capture sessions by how they ended.
	metricSessionsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubCapture,
			Name:      "sessions_total",
		},
		[]string{"format", metrics.FieldErrorCode},
	)

	metricBytesReadTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubCapture,
			Name:      "bytes_read_total",
		},
		[]string{"format"},
	)

	metricFormatFallbacksTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubCapture,
			Name:      "format_fallbacks_total",
		},
		[]string{"from", "to"},
	)
)
