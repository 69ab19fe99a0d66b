package events

import "strconv"

type URBType string

const (
	URBSubmission URBType = "submission"
	URBCallback   URBType = "callback"
	URBError      URBType = "error"
)

type TransferType string

const (
	TransferIsochronous TransferType = "isochronous"
	TransferInterrupt   TransferType = "interrupt"
	TransferControl     TransferType = "control"
	TransferBulk        TransferType = "bulk"
	TransferUnknown     TransferType = "unknown"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// EndpointDirIn is the direction bit of a usbmon endpoint number.
const EndpointDirIn uint8 = 0x80

// DirectionOf reads the direction bit of an endpoint number.
func DirectionOf(endpoint uint8) Direction {
	if endpoint&EndpointDirIn != 0 {
		return DirectionIn
	}
	return DirectionOut
}

// Status is the URB completion status. Code 0 is success; negative values are errno codes.
type Status struct {
	Code int32 `json:"code"`
}

func (s Status) Ok() bool {
	return s.Code == 0
}

func (s Status) String() string {
	if s.Ok() {
		return "ok"
	}
	return "error(" + strconv.Itoa(int(s.Code)) + ")"
}
