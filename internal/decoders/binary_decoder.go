package decoders

import (
	"encoding/binary"
	"time"

	"usbtop/internal/events"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// BinaryHeaderSize is the size of a usbmon binary record header (mmap/API 1 layout).
	BinaryHeaderSize = 64

	// maxPlausibleLength bounds the declared length of one URB. Larger values can only come
	// from a corrupt or misaligned header.
	maxPlausibleLength = 1 << 24
)

// decodeBinary walks records laid out as a 64-byte header followed by len_cap payload bytes.
func decodeBinary(raw []byte) Result {
	var result Result

	offset := 0
	for offset < len(raw) {
		rest := raw[offset:]
		if len(rest) < BinaryHeaderSize {
			result.keepTail(rest)
			break
		}

		header := rest[:BinaryHeaderSize]
		length := binary.LittleEndian.Uint32(header[32:36])
		capLen := binary.LittleEndian.Uint32(header[36:40])

		// Without a sane len_cap the record boundary is unknown; step over the header only.
		if capLen > maxPlausibleLength {
			result.addError(errImplausibleLength(offset, length, capLen))
			offset += BinaryHeaderSize
			continue
		}

		stride := BinaryHeaderSize + int(capLen)
		if len(rest) < stride {
			result.keepTail(rest)
			break
		}

		event, decErr := decodeBinaryRecord(rest[:stride], offset, length, capLen)
		if decErr != nil {
			result.addError(decErr)
		} else {
			result.addEvent(event)
		}
		offset += stride
	}

	return result
}

// decodeBinaryRecord decodes one whole record, header plus captured payload. layers.USB
// locates the payload from the end of the slice, so it must never see a bare header.
func decodeBinaryRecord(record []byte, offset int, length, capLen uint32) (events.TrafficEvent, *DecodeError) {
	if length > maxPlausibleLength {
		return events.TrafficEvent{}, errImplausibleLength(offset, length, capLen)
	}
	if capLen > length {
		return events.TrafficEvent{}, errCapturedExceedsLength(offset, length, capLen)
	}

	var usb layers.USB
	if err := usb.DecodeFromBytes(record, gopacket.NilDecodeFeedback); err != nil {
		return events.TrafficEvent{}, errHeaderDecodeFailed(offset, err)
	}

	urbType, ok := urbTypes[uint8(usb.EventType)]
	if !ok {
		return events.TrafficEvent{}, errUnknownURBType(offset, uint8(usb.EventType))
	}
	transferType, ok := binaryTransferType(uint8(usb.TransferType))
	if !ok {
		return events.TrafficEvent{}, errUnknownTransferType(offset, uint8(usb.TransferType))
	}

	// The raw epnum byte keeps the direction bit that layers.USB splits off.
	endpoint := record[10]
	status := normalizeStatus(urbType, usb.Status)

	return events.TrafficEvent{
		URBID:         usb.ID,
		URBType:       urbType,
		BusID:         usb.BusID,
		DeviceAddress: usb.DeviceAddress,
		Endpoint:      endpoint,
		TransferType:  transferType,
		Direction:     events.DirectionOf(endpoint),
		ByteCount:     byteCount(urbType, status, length),
		Status:        status,
		Timestamp:     time.Unix(usb.TimestampSec, int64(usb.TimestampUsec)*int64(time.Microsecond)).UTC(),
	}, nil
}
