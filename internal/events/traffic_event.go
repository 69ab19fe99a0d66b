package events

import (
	"time"

	"usbtop/internal/models"
)

// TrafficEvent is one decoded usbmon record. The decoder is the only producer; the
// aggregator consumes each event once and keeps only its byte counts.
//
// Example (bulk IN completion on bus 1, device 2, endpoint 1):
//
//	{
//	  "urbId": 18446612682070399488,
//	  "urbType": "callback",
//	  "busId": 1,
//	  "deviceAddress": 2,
//	  "endpoint": 129,
//	  "transferType": "bulk",
//	  "direction": "in",
//	  "byteCount": 512,
//	  "status": {"code": 0},
//	  "timestamp": "2025-12-28T18:03:45.123456Z"
//	}
//
// Only callbacks carry the length actually moved, so only callbacks count toward bandwidth.
type TrafficEvent struct {
	URBID         uint64       `json:"urbId"`
	URBType       URBType      `json:"urbType"`
	BusID         uint16       `json:"busId"`
	DeviceAddress uint8        `json:"deviceAddress"`
	Endpoint      uint8        `json:"endpoint"`
	TransferType  TransferType `json:"transferType"`
	Direction     Direction    `json:"direction"`
	ByteCount     uint32       `json:"byteCount"`
	Status        Status       `json:"status"`
	Timestamp     time.Time    `json:"timestamp"`
}

// Key returns the device key of the event.
func (e *TrafficEvent) Key() models.DeviceKey {
	return models.DeviceKey{Bus: e.BusID, Address: e.DeviceAddress}
}

// CountedBytes is the number of bytes the event contributes to bandwidth.
func (e *TrafficEvent) CountedBytes() uint32 {
	if e.URBType != URBCallback || !e.Status.Ok() {
		return 0
	}
	return e.ByteCount
}

// EndpointNumber strips the direction bit.
func (e *TrafficEvent) EndpointNumber() uint8 {
	return e.Endpoint & 0x7f
}
