package models

import "time"

// BandwidthStats is a point-in-time view of one device or bus. Values handed out by the
// aggregator are copies; History is never shared with live state.
type BandwidthStats struct {
	Key                DeviceKey      `json:"key"`
	RxBytesPerSec      float64        `json:"rxBytesPerSec"`
	TxBytesPerSec      float64        `json:"txBytesPerSec"`
	PeakBytesPerSec    float64        `json:"peakBytesPerSec"`
	Utilization        float64        `json:"utilization"`
	Speed              Speed          `json:"speed"`
	CapacityBitsPerSec uint64         `json:"capacityBitsPerSec"`
	TotalRxBytes       uint64         `json:"totalRxBytes"`
	TotalTxBytes       uint64         `json:"totalTxBytes"`
	History            []WindowSample `json:"history"`
	LastActivity       time.Time      `json:"lastActivity"`
	Stale              bool           `json:"stale"`
}

func (s BandwidthStats) BytesPerSec() float64 {
	return s.RxBytesPerSec + s.TxBytesPerSec
}
