package models

import "time"

// CaptureErrorKind classifies why a capture source stopped.
type CaptureErrorKind string

const (
	CaptureErrorNone                 CaptureErrorKind = ""
	CaptureErrorPermissionDenied     CaptureErrorKind = "permission_denied"
	CaptureErrorInterfaceUnavailable CaptureErrorKind = "interface_unavailable"
	CaptureErrorDeviceRemoved        CaptureErrorKind = "device_removed"
	CaptureErrorMalformedStream      CaptureErrorKind = "malformed_stream"
	CaptureErrorNoActiveSources      CaptureErrorKind = "no_active_sources"
	CaptureErrorUnknown              CaptureErrorKind = "unknown"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityFatal   Severity = "fatal"
)

// SourceCondition is a warning or fatal condition raised between two ticks.
type SourceCondition struct {
	Bus      uint16           `json:"bus"`
	Severity Severity         `json:"severity"`
	Kind     CaptureErrorKind `json:"kind"`
	Code     string           `json:"code,omitempty"`
	Message  string           `json:"message"`
	At       time.Time        `json:"at"`
}

// TickSnapshot is the immutable result of one orchestrator tick.
type TickSnapshot struct {
	Sequence   uint64            `json:"sequence"`
	TakenAt    time.Time         `json:"takenAt"`
	Buses      []BandwidthStats  `json:"buses"`
	Devices    []BandwidthStats  `json:"devices"`
	Evicted    []DeviceKey       `json:"evicted,omitempty"`
	Conditions []SourceCondition `json:"conditions,omitempty"`
}

// Lookup finds the stats for key in the snapshot.
func (s *TickSnapshot) Lookup(key DeviceKey) (BandwidthStats, bool) {
	if s == nil {
		return BandwidthStats{}, false
	}
	list := s.Devices
	if key.IsBus() {
		list = s.Buses
	}
	for _, stats := range list {
		if stats.Key == key {
			return stats, true
		}
	}
	return BandwidthStats{}, false
}
