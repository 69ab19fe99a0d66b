package renderers

import (
	"context"

	"usbtop/internal/models"
	"usbtop/internal/orchestrators"
	"usbtop/internal/shared/metrics"
)

const labelKey = "key"

// Bandwidth gauges, labelled by "bus-address". Address 0 is the bus aggregate.
var (
	metricRxBytesPerSecond = metrics.NewGaugeVec(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBandwidth,
			Name:      "rx_bytes_per_second",
		},
		[]string{labelKey},
	)

	metricTxBytesPerSecond = metrics.NewGaugeVec(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBandwidth,
			Name:      "tx_bytes_per_second",
		},
		[]string{labelKey},
	)

	metricPeakBytesPerSecond = metrics.NewGaugeVec(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBandwidth,
			Name:      "peak_bytes_per_second",
		},
		[]string{labelKey},
	)

	metricUtilizationRatio = metrics.NewGaugeVec(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubBandwidth,
			Name:      "utilization_ratio",
		},
		[]string{labelKey},
	)
)

type metricsRenderer struct{}

// NewMetricsRenderer exports every tick as Prometheus gauges and drops the series of
// evicted keys.
func NewMetricsRenderer() orchestrators.Renderer {
	return metricsRenderer{}
}

func (metricsRenderer) Render(_ context.Context, snapshot *models.TickSnapshot) error {
	for _, list := range [][]models.BandwidthStats{snapshot.Buses, snapshot.Devices} {
		for _, stats := range list {
			key := stats.Key.String()
			metricRxBytesPerSecond.WithLabelValues(key).Set(stats.RxBytesPerSec)
			metricTxBytesPerSecond.WithLabelValues(key).Set(stats.TxBytesPerSec)
			metricPeakBytesPerSecond.WithLabelValues(key).Set(stats.PeakBytesPerSec)
			metricUtilizationRatio.WithLabelValues(key).Set(stats.Utilization)
		}
	}
	for _, evicted := range snapshot.Evicted {
		key := evicted.String()
		metricRxBytesPerSecond.DeleteLabelValues(key)
		metricTxBytesPerSecond.DeleteLabelValues(key)
		metricPeakBytesPerSecond.DeleteLabelValues(key)
		metricUtilizationRatio.DeleteLabelValues(key)
	}
	return nil
}
