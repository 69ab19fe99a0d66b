package decoders

import "usbtop/internal/events"

// binaryTransferTypes is indexed by the xfer_type byte of a binary record.
var binaryTransferTypes = [...]events.TransferType{
	0: events.TransferIsochronous,
	1: events.TransferInterrupt,
	2: events.TransferControl,
	3: events.TransferBulk,
}

// textTransferTypes maps the first letter of a text address word.
var textTransferTypes = map[byte]events.TransferType{
	'Z': events.TransferIsochronous,
	'I': events.TransferInterrupt,
	'C': events.TransferControl,
	'B': events.TransferBulk,
}

var urbTypes = map[byte]events.URBType{
	'S': events.URBSubmission,
	'C': events.URBCallback,
	'E': events.URBError,
}

func binaryTransferType(b byte) (events.TransferType, bool) {
	if int(b) >= len(binaryTransferTypes) {
		return events.TransferUnknown, false
	}
	return binaryTransferTypes[b], true
}

func textTransferType(b byte) events.TransferType {
	if tt, ok := textTransferTypes[b]; ok {
		return tt
	}
	return events.TransferUnknown
}
