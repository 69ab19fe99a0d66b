package decoders_test

import (
	"testing"
	"time"

	"usbtop/internal/decoders"
	"usbtop/internal/decoders/decodertest"
	"usbtop/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBinary_SingleRecord(t *testing.T) {
	t.Parallel()

	record := decodertest.BulkIn(1, 2, 512, 1000)
	record.TsUsec = 250

	result := decoders.Decode(record.Bytes(), decoders.ModeBinary)

	require.Empty(t, result.Errors)
	require.Len(t, result.Events, 1)
	assert.False(t, result.Incomplete())

	event := result.Events[0]
	assert.Equal(t, uint64(0xffff88007c861a00), event.URBID)
	assert.Equal(t, events.URBCallback, event.URBType)
	assert.Equal(t, uint16(1), event.BusID)
	assert.Equal(t, uint8(2), event.DeviceAddress)
	assert.Equal(t, uint8(0x81), event.Endpoint)
	assert.Equal(t, events.TransferBulk, event.TransferType)
	assert.Equal(t, events.DirectionIn, event.Direction)
	assert.Equal(t, uint32(512), event.ByteCount)
	assert.True(t, event.Status.Ok())
	assert.True(t, event.Timestamp.Equal(time.Unix(1000, 250_000)))
}

func TestDecodeBinary_ByteCountEqualsDeclaredLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		length  uint32
		payload int
	}{
		{name: "zero length", length: 0, payload: 0},
		{name: "fully captured", length: 64, payload: 64},
		{name: "partially captured", length: 4096, payload: 32},
		{name: "not captured", length: 31, payload: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record := decodertest.BulkIn(3, 7, tt.payload, 1)
			record.Length = tt.length

			result := decoders.Decode(record.Bytes(), decoders.ModeBinary)

			require.Empty(t, result.Errors)
			require.Len(t, result.Events, 1)
			assert.Equal(t, tt.length, result.Events[0].ByteCount)
			assert.LessOrEqual(t, result.Events[0].ByteCount, tt.length)
		})
	}
}

func TestDecodeBinary_TransferTypesAndDirections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		xfer      byte
		epnum     byte
		transfer  events.TransferType
		direction events.Direction
	}{
		{xfer: 0, epnum: 0x83, transfer: events.TransferIsochronous, direction: events.DirectionIn},
		{xfer: 1, epnum: 0x81, transfer: events.TransferInterrupt, direction: events.DirectionIn},
		{xfer: 2, epnum: 0x00, transfer: events.TransferControl, direction: events.DirectionOut},
		{xfer: 3, epnum: 0x02, transfer: events.TransferBulk, direction: events.DirectionOut},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.transfer), func(t *testing.T) {
			t.Parallel()

			record := decodertest.BulkIn(1, 4, 8, 1)
			record.XferType = tt.xfer
			record.Epnum = tt.epnum

			result := decoders.Decode(record.Bytes(), decoders.ModeBinary)

			require.Len(t, result.Events, 1)
			assert.Equal(t, tt.transfer, result.Events[0].TransferType)
			assert.Equal(t, tt.direction, result.Events[0].Direction)
		})
	}
}

func TestDecodeBinary_StatusRules(t *testing.T) {
	t.Parallel()

	submission := decodertest.BulkIn(1, 2, 0, 1)
	submission.Type = 'S'
	submission.Status = -115
	submission.Length = 512

	failed := decodertest.BulkIn(1, 2, 0, 1)
	failed.Status = -71
	failed.Length = 512

	errored := decodertest.BulkIn(1, 2, 0, 1)
	errored.Type = 'E'
	errored.Status = -19
	errored.Length = 512

	result := decoders.Decode(decodertest.Concat(submission, failed, errored), decoders.ModeBinary)

	require.Empty(t, result.Errors)
	require.Len(t, result.Events, 3)

	assert.Equal(t, events.URBSubmission, result.Events[0].URBType)
	assert.True(t, result.Events[0].Status.Ok(), "in-progress submissions are normalized")
	assert.Equal(t, uint32(512), result.Events[0].ByteCount)

	assert.Equal(t, int32(-71), result.Events[1].Status.Code)
	assert.Equal(t, uint32(0), result.Events[1].ByteCount)

	assert.Equal(t, events.URBError, result.Events[2].URBType)
	assert.Equal(t, uint32(0), result.Events[2].ByteCount)
}

func TestDecodeBinary_IncompleteTail(t *testing.T) {
	t.Parallel()

	first := decodertest.BulkIn(1, 2, 100, 1)
	second := decodertest.BulkIn(1, 2, 200, 2)
	buf := decodertest.Concat(first, second)

	cut := len(first.Bytes()) + 10
	result := decoders.Decode(buf[:cut], decoders.ModeBinary)

	require.Empty(t, result.Errors)
	require.Len(t, result.Events, 1)
	assert.True(t, result.Incomplete())
	assert.Equal(t, buf[len(first.Bytes()):cut], result.Tail)
}

func TestDecodeBinary_ReassemblyIsIdempotent(t *testing.T) {
	t.Parallel()

	records := []decodertest.BinaryRecord{
		decodertest.BulkIn(1, 2, 0, 1),
		decodertest.BulkIn(1, 3, 77, 2),
		decodertest.BulkIn(2, 9, 130, 3),
	}
	buf := decodertest.Concat(records...)
	atomic := decoders.Decode(buf, decoders.ModeBinary)
	require.Len(t, atomic.Events, len(records))

	// Every split point must reproduce the atomic result once the tail is re-fed.
	for cut := 0; cut <= len(buf); cut++ {
		first := decoders.Decode(buf[:cut], decoders.ModeBinary)
		rest := append(append([]byte(nil), first.Tail...), buf[cut:]...)
		second := decoders.Decode(rest, decoders.ModeBinary)

		got := append(append([]events.TrafficEvent(nil), first.Events...), second.Events...)
		require.Equal(t, atomic.Events, got, "cut at %d", cut)
		require.False(t, second.Incomplete(), "cut at %d", cut)
	}
}

func TestDecodeBinary_TailDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	buf := decodertest.BulkIn(1, 2, 16, 1).Bytes()
	result := decoders.Decode(buf[:40], decoders.ModeBinary)
	require.True(t, result.Incomplete())

	buf[0] = 0xAA
	assert.NotEqual(t, byte(0xAA), result.Tail[0])
}

func TestDecodeBinary_CorruptRecordsAreSkipped(t *testing.T) {
	t.Parallel()

	unknownType := decodertest.BulkIn(1, 2, 8, 1)
	unknownType.Type = 'X'

	unknownTransfer := decodertest.BulkIn(1, 2, 8, 1)
	unknownTransfer.XferType = 7

	capExceedsLength := decodertest.BulkIn(1, 2, 8, 1)
	capExceedsLength.Length = 4

	implausibleLength := decodertest.BulkIn(1, 2, 0, 1)
	implausibleLength.Length = 1 << 30

	implausibleCapture := decodertest.BulkIn(1, 2, 0, 1)
	implausibleCapture.Length = 1 << 30
	implausibleCapture.CapLen = 1 << 30

	valid := decodertest.BulkIn(1, 5, 16, 1)

	tests := []struct {
		name    string
		corrupt decodertest.BinaryRecord
		code    string
	}{
		{name: "unknown urb type", corrupt: unknownType, code: "DEC_1000"},
		{name: "transfer type outside table", corrupt: unknownTransfer, code: "DEC_1001"},
		{name: "captured exceeds declared", corrupt: capExceedsLength, code: "DEC_1003"},
		{name: "implausible length", corrupt: implausibleLength, code: "DEC_1002"},
		{name: "implausible captured length", corrupt: implausibleCapture, code: "DEC_1002"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := decoders.Decode(decodertest.Concat(valid, tt.corrupt, valid), decoders.ModeBinary)

			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.code, result.Errors[0].Code)
			assert.Equal(t, len(valid.Bytes()), result.Errors[0].Offset)
			require.Len(t, result.Events, 2)
			assert.Equal(t, uint8(5), result.Events[1].DeviceAddress)
			assert.Equal(t, 0, result.TrailingFailures)
			assert.Equal(t, 0, result.LeadingFailures)
		})
	}
}

func TestDecodeBinary_FailureRuns(t *testing.T) {
	t.Parallel()

	bad := decodertest.BulkIn(1, 2, 0, 1)
	bad.Type = '?'
	good := decodertest.BulkIn(1, 2, 0, 1)

	result := decoders.Decode(decodertest.Concat(bad, bad, good, bad, bad, bad), decoders.ModeBinary)
	assert.Equal(t, 2, result.LeadingFailures)
	assert.Equal(t, 3, result.TrailingFailures)
	assert.Len(t, result.Errors, 5)

	result = decoders.Decode(decodertest.Concat(bad, bad), decoders.ModeBinary)
	assert.Empty(t, result.Events)
	assert.Equal(t, 2, result.LeadingFailures)
	assert.Equal(t, 2, result.TrailingFailures)
	assert.Equal(t, 2, result.MaxFailureRun)
}

func TestDecodeBinary_MaxFailureRunBetweenDecodedRecords(t *testing.T) {
	t.Parallel()

	bad := decodertest.BulkIn(1, 2, 0, 1)
	bad.Type = '?'
	good := decodertest.BulkIn(1, 2, 8, 1)

	records := []decodertest.BinaryRecord{bad, good}
	for i := 0; i < 100; i++ {
		records = append(records, bad)
	}
	records = append(records, good, bad, bad)

	result := decoders.Decode(decodertest.Concat(records...), decoders.ModeBinary)

	require.Len(t, result.Events, 2)
	assert.Len(t, result.Errors, 103)
	assert.Equal(t, 1, result.LeadingFailures)
	assert.Equal(t, 2, result.TrailingFailures)
	assert.Equal(t, 100, result.MaxFailureRun)
}

func TestDecodeBinary_CapturedPayloadSizes(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 63, 64, 65, 512, 4096, 65536} {
		record := decodertest.BulkIn(2, 9, n, 1)
		buf := decodertest.Concat(record, record)

		var result decoders.Result
		require.NotPanics(t, func() {
			result = decoders.Decode(buf, decoders.ModeBinary)
		}, "payload of %d bytes", n)

		require.Empty(t, result.Errors, "payload of %d bytes", n)
		require.Len(t, result.Events, 2, "payload of %d bytes", n)
		assert.Equal(t, uint32(n), result.Events[1].ByteCount)
		assert.Equal(t, uint8(9), result.Events[1].DeviceAddress)
	}
}

func TestDecode_EmptyBuffer(t *testing.T) {
	t.Parallel()

	for _, mode := range []decoders.Mode{decoders.ModeBinary, decoders.ModeText} {
		result := decoders.Decode(nil, mode)
		assert.Empty(t, result.Events, mode.String())
		assert.Empty(t, result.Errors, mode.String())
		assert.False(t, result.Incomplete(), mode.String())
	}
}
