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

func TestDecodeText_Lines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		expected events.TrafficEvent
	}{
		{
			name: "bulk out submission with data",
			line: "dd65f0e8 4128379752 S Bo:1:005:2 -115 31 = 55534243 5e000000 00000000 00000600",
			expected: events.TrafficEvent{
				URBID: 0xdd65f0e8, URBType: events.URBSubmission, BusID: 1, DeviceAddress: 5, Endpoint: 0x02,
				TransferType: events.TransferBulk, Direction: events.DirectionOut, ByteCount: 31,
				Timestamp: time.UnixMicro(4128379752).UTC(),
			},
		},
		{
			name: "bulk out completion without data tag",
			line: "dd65f0e8 4128379808 C Bo:1:005:2 0 31 >",
			expected: events.TrafficEvent{
				URBID: 0xdd65f0e8, URBType: events.URBCallback, BusID: 1, DeviceAddress: 5, Endpoint: 0x02,
				TransferType: events.TransferBulk, Direction: events.DirectionOut, ByteCount: 31,
				Timestamp: time.UnixMicro(4128379808).UTC(),
			},
		},
		{
			name: "control submission with setup packet",
			line: "d5ea89a0 3575914555 S Ci:1:001:0 s a3 00 0000 0003 0004 4 <",
			expected: events.TrafficEvent{
				URBID: 0xd5ea89a0, URBType: events.URBSubmission, BusID: 1, DeviceAddress: 1, Endpoint: 0x80,
				TransferType: events.TransferControl, Direction: events.DirectionIn, ByteCount: 4,
				Timestamp: time.UnixMicro(3575914555).UTC(),
			},
		},
		{
			name: "interrupt completion with interval",
			line: "f7b8a480 4170112560 C Ii:2:002:1 0:8 4 = 00000000",
			expected: events.TrafficEvent{
				URBID: 0xf7b8a480, URBType: events.URBCallback, BusID: 2, DeviceAddress: 2, Endpoint: 0x81,
				TransferType: events.TransferInterrupt, Direction: events.DirectionIn, ByteCount: 4,
				Timestamp: time.UnixMicro(4170112560).UTC(),
			},
		},
		{
			name: "isochronous submission with descriptors",
			line: "ffff8800bbcf2e00 2958433349 S Zi:2:003:1 -115:8:0 2 -18:0:192 -18:192:192 384 <",
			expected: events.TrafficEvent{
				URBID: 0xffff8800bbcf2e00, URBType: events.URBSubmission, BusID: 2, DeviceAddress: 3, Endpoint: 0x81,
				TransferType: events.TransferIsochronous, Direction: events.DirectionIn, ByteCount: 384,
				Timestamp: time.UnixMicro(2958433349).UTC(),
			},
		},
		{
			name: "error event without length",
			line: "ffff88003a1c4c00 1234567 E Bo:1:004:2 -19",
			expected: events.TrafficEvent{
				URBID: 0xffff88003a1c4c00, URBType: events.URBError, BusID: 1, DeviceAddress: 4, Endpoint: 0x02,
				TransferType: events.TransferBulk, Direction: events.DirectionOut, ByteCount: 0,
				Status: events.Status{Code: -19}, Timestamp: time.UnixMicro(1234567).UTC(),
			},
		},
		{
			name: "failed completion moves no bytes",
			line: "ffff88003a1c4c00 1234567 C Bi:1:004:1 -32 0",
			expected: events.TrafficEvent{
				URBID: 0xffff88003a1c4c00, URBType: events.URBCallback, BusID: 1, DeviceAddress: 4, Endpoint: 0x81,
				TransferType: events.TransferBulk, Direction: events.DirectionIn, ByteCount: 0,
				Status: events.Status{Code: -32}, Timestamp: time.UnixMicro(1234567).UTC(),
			},
		},
		{
			name: "address without bus",
			line: "ffff88003a1c4c00 42 C Bi:004:1 0 64 =",
			expected: events.TrafficEvent{
				URBID: 0xffff88003a1c4c00, URBType: events.URBCallback, BusID: 0, DeviceAddress: 4, Endpoint: 0x81,
				TransferType: events.TransferBulk, Direction: events.DirectionIn, ByteCount: 64,
				Timestamp: time.UnixMicro(42).UTC(),
			},
		},
		{
			name: "unknown transfer letter",
			line: "ffff88003a1c4c00 42 C Xi:1:004:1 0 64",
			expected: events.TrafficEvent{
				URBID: 0xffff88003a1c4c00, URBType: events.URBCallback, BusID: 1, DeviceAddress: 4, Endpoint: 0x81,
				TransferType: events.TransferUnknown, Direction: events.DirectionIn, ByteCount: 64,
				Timestamp: time.UnixMicro(42).UTC(),
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := decoders.Decode(decodertest.Lines(tt.line), decoders.ModeText)

			require.Empty(t, result.Errors)
			require.Len(t, result.Events, 1)
			assert.Equal(t, tt.expected, result.Events[0])
		})
	}
}

func TestDecodeText_MalformedLinesAreSkipped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		code string
	}{
		{name: "too few fields", line: "ffff88007c861a00 2389264913 S", code: "DEC_1100"},
		{name: "completion without length", line: "ffff88007c861a00 2389264913 C Bi:1:002:1 0", code: "DEC_1100"},
		{name: "setup packet cut short", line: "d5ea89a0 3575914555 S Ci:1:001:0 s a3 00", code: "DEC_1100"},
		{name: "bad tag", line: "zzzz 2389264913 C Bi:1:002:1 0 4", code: "DEC_1101"},
		{name: "bad timestamp", line: "ffff 23x9 C Bi:1:002:1 0 4", code: "DEC_1101"},
		{name: "bad event type", line: "ffff 1 Q Bi:1:002:1 0 4", code: "DEC_1101"},
		{name: "bad address", line: "ffff 1 C Bi-1-002-1 0 4", code: "DEC_1101"},
		{name: "bad direction", line: "ffff 1 C Bx:1:002:1 0 4", code: "DEC_1101"},
		{name: "device out of range", line: "ffff 1 C Bi:1:999:1 0 4", code: "DEC_1101"},
		{name: "bad status", line: "ffff 1 C Bi:1:002:1 ok 4", code: "DEC_1101"},
		{name: "bad length", line: "ffff 1 C Bi:1:002:1 0 -4", code: "DEC_1101"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := decodertest.Lines(
				decodertest.TextBulkIn(1, 2, 10, 100),
				tt.line,
				decodertest.TextBulkIn(1, 2, 20, 200),
			)
			result := decoders.Decode(raw, decoders.ModeText)

			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.code, result.Errors[0].Code)
			require.Len(t, result.Events, 2)
			assert.Equal(t, uint32(10), result.Events[0].ByteCount)
			assert.Equal(t, uint32(20), result.Events[1].ByteCount)
		})
	}
}

func TestDecodeText_BlankLinesAreIgnored(t *testing.T) {
	t.Parallel()

	raw := []byte("\n   \n" + decodertest.TextBulkIn(1, 2, 8, 1) + "\r\n\n")
	result := decoders.Decode(raw, decoders.ModeText)

	assert.Empty(t, result.Errors)
	assert.Len(t, result.Events, 1)
	assert.False(t, result.Incomplete())
}

func TestDecodeText_ErrorOffsetPointsAtLine(t *testing.T) {
	t.Parallel()

	good := decodertest.TextBulkIn(1, 2, 8, 1)
	raw := decodertest.Lines(good, "garbage")
	result := decoders.Decode(raw, decoders.ModeText)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, len(good)+1, result.Errors[0].Offset)
}

func TestDecodeText_ReassemblyIsIdempotent(t *testing.T) {
	t.Parallel()

	raw := decodertest.Lines(
		decodertest.TextBulkIn(1, 2, 8, 1),
		"d5ea89a0 3575914555 S Ci:1:001:0 s a3 00 0000 0003 0004 4 <",
		decodertest.TextBulkIn(1, 3, 512, 3),
	)
	atomic := decoders.Decode(raw, decoders.ModeText)
	require.Len(t, atomic.Events, 3)

	for cut := 0; cut <= len(raw); cut++ {
		first := decoders.Decode(raw[:cut], decoders.ModeText)
		rest := append(append([]byte(nil), first.Tail...), raw[cut:]...)
		second := decoders.Decode(rest, decoders.ModeText)

		got := append(append([]events.TrafficEvent(nil), first.Events...), second.Events...)
		require.Equal(t, atomic.Events, got, "cut at %d", cut)
		require.Empty(t, second.Errors, "cut at %d", cut)
	}
}
