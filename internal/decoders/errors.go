package decoders

import "fmt"

const (
	codeUnknownURBType        = "DEC_1000"
	codeUnknownTransferType   = "DEC_1001"
	codeImplausibleLength     = "DEC_1002"
	codeCapturedExceedsLength = "DEC_1003"
	codeHeaderDecodeFailed    = "DEC_1004"

	codeMissingField = "DEC_1100"
	codeInvalidField = "DEC_1101"
)

// DecodeError describes one record that was rejected. Decoding continues after it.
type DecodeError struct {
	Offset int    // byte offset of the record within the decoded buffer
	Code   string // stable code, DEC_xxxx
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: record at offset %d: %s", e.Code, e.Offset, e.Reason)
}

func errUnknownURBType(offset int, b byte) *DecodeError {
	return &DecodeError{Offset: offset, Code: codeUnknownURBType, Reason: fmt.Sprintf("unknown urb type %q", b)}
}

func errUnknownTransferType(offset int, b byte) *DecodeError {
	return &DecodeError{Offset: offset, Code: codeUnknownTransferType, Reason: fmt.Sprintf("transfer type byte %d outside table", b)}
}

func errImplausibleLength(offset int, length, capLen uint32) *DecodeError {
	return &DecodeError{Offset: offset, Code: codeImplausibleLength, Reason: fmt.Sprintf("implausible length=%d len_cap=%d", length, capLen)}
}

func errCapturedExceedsLength(offset int, length, capLen uint32) *DecodeError {
	return &DecodeError{Offset: offset, Code: codeCapturedExceedsLength, Reason: fmt.Sprintf("len_cap=%d exceeds length=%d", capLen, length)}
}

func errHeaderDecodeFailed(offset int, cause error) *DecodeError {
	return &DecodeError{Offset: offset, Code: codeHeaderDecodeFailed, Reason: fmt.Sprintf("header decode failed: %v", cause)}
}

func errMissingField(offset int, field string) *DecodeError {
	return &DecodeError{Offset: offset, Code: codeMissingField, Reason: "missing " + field}
}

func errInvalidField(offset int, field, value string) *DecodeError {
	return &DecodeError{Offset: offset, Code: codeInvalidField, Reason: fmt.Sprintf("invalid %s %q", field, value)}
}
