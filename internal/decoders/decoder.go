package decoders

import (
	"fmt"

	"usbtop/internal/events"
)

// Mode selects the usbmon wire format.
type Mode int

const (
	ModeBinary Mode = iota
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModeBinary:
		return "binary"
	case ModeText:
		return "text"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// statusInProgress is -EINPROGRESS, reported by usbmon for every submission.
const statusInProgress = -115

// Result is the outcome of decoding one buffer.
type Result struct {
	Events []events.TrafficEvent
	Errors []*DecodeError

	// Tail holds the bytes of a trailing record that is not complete yet. The caller
	// prepends them to the next read. Tail never aliases the decoded buffer.
	Tail []byte

	// LeadingFailures counts rejected records before the first decoded one;
	// TrailingFailures counts rejected records after the last decoded one.
	// When no record decoded, both equal len(Errors).
	LeadingFailures  int
	TrailingFailures int

	// MaxFailureRun is the longest run of consecutive rejected records anywhere in the
	// buffer, including runs between two decoded records.
	MaxFailureRun int
}

// Incomplete reports whether the buffer ended inside a record.
func (r *Result) Incomplete() bool {
	return len(r.Tail) > 0
}

func (r *Result) addEvent(event events.TrafficEvent) {
	r.Events = append(r.Events, event)
	r.TrailingFailures = 0
}

func (r *Result) addError(err *DecodeError) {
	r.Errors = append(r.Errors, err)
	if len(r.Events) == 0 {
		r.LeadingFailures++
	}
	r.TrailingFailures++
	if r.TrailingFailures > r.MaxFailureRun {
		r.MaxFailureRun = r.TrailingFailures
	}
}

func (r *Result) keepTail(rest []byte) {
	r.Tail = append([]byte(nil), rest...)
}

// Decode turns one raw capture buffer into traffic events. It performs no I/O and keeps
// no state between calls; a malformed record is reported in Result.Errors and skipped.
func Decode(raw []byte, mode Mode) Result {
	if mode == ModeText {
		return decodeText(raw)
	}
	return decodeBinary(raw)
}

// normalizeStatus maps the in-progress status of submissions to success.
func normalizeStatus(urbType events.URBType, code int32) events.Status {
	if urbType == events.URBSubmission && code == statusInProgress {
		return events.Status{}
	}
	return events.Status{Code: code}
}

// byteCount applies the transferred-bytes rule: errors and failed transfers move nothing.
func byteCount(urbType events.URBType, status events.Status, length uint32) uint32 {
	if urbType == events.URBError || !status.Ok() {
		return 0
	}
	return length
}
