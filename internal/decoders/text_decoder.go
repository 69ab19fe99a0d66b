package decoders

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"usbtop/internal/events"
)

const setupWordCount = 5

// decodeText decodes newline-terminated lines of the usbmon "u" text API:
//
//	ffff88007c861a00 2389264913 S Bo:1:001:0 -115 31 = 55534243 ...
//
// A trailing line without a newline is returned as Tail.
func decodeText(raw []byte) Result {
	var result Result

	offset := 0
	for offset < len(raw) {
		newline := bytes.IndexByte(raw[offset:], '\n')
		if newline < 0 {
			result.keepTail(raw[offset:])
			break
		}

		line := strings.TrimSpace(string(raw[offset : offset+newline]))
		if line != "" {
			event, decErr := decodeTextLine(line, offset)
			if decErr != nil {
				result.addError(decErr)
			} else {
				result.addEvent(event)
			}
		}
		offset += newline + 1
	}

	return result
}

func decodeTextLine(line string, offset int) (events.TrafficEvent, *DecodeError) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return events.TrafficEvent{}, errMissingField(offset, "status")
	}

	urbID, err := strconv.ParseUint(fields[0], 16, 64)
	if err != nil {
		return events.TrafficEvent{}, errInvalidField(offset, "urb tag", fields[0])
	}
	micros, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return events.TrafficEvent{}, errInvalidField(offset, "timestamp", fields[1])
	}
	if len(fields[2]) != 1 {
		return events.TrafficEvent{}, errInvalidField(offset, "event type", fields[2])
	}
	urbType, ok := urbTypes[fields[2][0]]
	if !ok {
		return events.TrafficEvent{}, errInvalidField(offset, "event type", fields[2])
	}

	address, decErr := parseTextAddress(fields[3], offset)
	if decErr != nil {
		return events.TrafficEvent{}, decErr
	}

	rest := fields[4:]
	code, rest, decErr := parseTextStatus(rest, address.transferType, offset)
	if decErr != nil {
		return events.TrafficEvent{}, decErr
	}

	var length uint32
	if len(rest) == 0 {
		// Error events may stop after the status word.
		if urbType != events.URBError {
			return events.TrafficEvent{}, errMissingField(offset, "length")
		}
	} else {
		parsed, err := strconv.ParseUint(rest[0], 10, 32)
		if err != nil {
			return events.TrafficEvent{}, errInvalidField(offset, "length", rest[0])
		}
		length = uint32(parsed)
	}

	status := normalizeStatus(urbType, code)

	return events.TrafficEvent{
		URBID:         urbID,
		URBType:       urbType,
		BusID:         address.bus,
		DeviceAddress: address.device,
		Endpoint:      address.endpoint,
		TransferType:  address.transferType,
		Direction:     events.DirectionOf(address.endpoint),
		ByteCount:     byteCount(urbType, status, length),
		Status:        status,
		Timestamp:     time.UnixMicro(int64(micros)).UTC(),
	}, nil
}

type textAddress struct {
	transferType events.TransferType
	bus          uint16 // 0 when the line carries no bus number
	device       uint8
	endpoint     uint8 // with direction bit
}

// parseTextAddress parses "Bo:1:001:2" or the older busless form "Bo:001:2".
func parseTextAddress(word string, offset int) (textAddress, *DecodeError) {
	parts := strings.Split(word, ":")
	if (len(parts) != 3 && len(parts) != 4) || len(parts[0]) != 2 {
		return textAddress{}, errInvalidField(offset, "address", word)
	}

	var address textAddress
	address.transferType = textTransferType(parts[0][0])

	switch parts[0][1] {
	case 'i':
		address.endpoint = events.EndpointDirIn
	case 'o':
	default:
		return textAddress{}, errInvalidField(offset, "direction", word)
	}

	numbers := parts[1:]
	if len(numbers) == 3 {
		bus, err := strconv.ParseUint(numbers[0], 10, 16)
		if err != nil {
			return textAddress{}, errInvalidField(offset, "bus", word)
		}
		address.bus = uint16(bus)
		numbers = numbers[1:]
	}

	device, err := strconv.ParseUint(numbers[0], 10, 8)
	if err != nil {
		return textAddress{}, errInvalidField(offset, "device", word)
	}
	endpoint, err := strconv.ParseUint(numbers[1], 10, 8)
	if err != nil || endpoint > 0x7f {
		return textAddress{}, errInvalidField(offset, "endpoint", word)
	}
	address.device = uint8(device)
	address.endpoint |= uint8(endpoint)

	return address, nil
}

// parseTextStatus consumes the status word and whatever the format places between it and
// the length word: five setup words after "s", or an ISO descriptor count and descriptors.
func parseTextStatus(fields []string, transferType events.TransferType, offset int) (int32, []string, *DecodeError) {
	word := fields[0]
	rest := fields[1:]

	if word == "s" {
		if len(rest) < setupWordCount {
			return 0, nil, errMissingField(offset, "setup packet")
		}
		return 0, rest[setupWordCount:], nil
	}

	// status[:interval[:start_frame[:error_count]]]
	statusPart, _, _ := strings.Cut(word, ":")
	code, err := strconv.ParseInt(statusPart, 10, 32)
	if err != nil {
		return 0, nil, errInvalidField(offset, "status", word)
	}

	if transferType == events.TransferIsochronous && len(rest) >= 2 && strings.Contains(rest[1], ":") {
		if _, err := strconv.ParseUint(rest[0], 10, 32); err != nil {
			return 0, nil, errInvalidField(offset, "descriptor count", rest[0])
		}
		rest = rest[1:]
		for len(rest) > 0 && strings.Contains(rest[0], ":") {
			rest = rest[1:]
		}
	}

	return int32(code), rest, nil
}
