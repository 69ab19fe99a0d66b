package devices

import (
	"usbtop/internal/shared/metrics"
)

// metricScansTotal counts sysfs scans. error_code is empty for successful scans.
var (
	metricScansTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubDevices,
			Name:      "scans_total",
		},
		[]string{metrics.FieldErrorCode},
	)
)
