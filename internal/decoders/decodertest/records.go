// Package decodertest builds usbmon records for tests.
package decodertest

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const headerSize = 64

// BinaryRecord describes one binary usbmon record. CapLen is written as-is so tests can
// build inconsistent headers; Payload is appended after the header.
type BinaryRecord struct {
	ID       uint64
	Type     byte // 'S', 'C' or 'E'
	XferType byte // 0 iso, 1 interrupt, 2 control, 3 bulk
	Epnum    byte // with 0x80 for IN
	Devnum   byte
	Busnum   uint16
	TsSec    int64
	TsUsec   int32
	Status   int32
	Length   uint32
	CapLen   uint32
	Payload  []byte
}

// BulkIn returns a successful bulk IN completion carrying n bytes, all captured.
func BulkIn(bus uint16, dev byte, n int, tsSec int64) BinaryRecord {
	return BinaryRecord{
		ID:       0xffff88007c861a00,
		Type:     'C',
		XferType: 3,
		Epnum:    0x81,
		Devnum:   dev,
		Busnum:   bus,
		TsSec:    tsSec,
		Length:   uint32(n),
		CapLen:   uint32(n),
		Payload:  make([]byte, n),
	}
}

// Bytes encodes the record in the 64-byte little-endian layout.
func (r BinaryRecord) Bytes() []byte {
	buf := make([]byte, headerSize+len(r.Payload))
	binary.LittleEndian.PutUint64(buf[0:8], r.ID)
	buf[8] = r.Type
	buf[9] = r.XferType
	buf[10] = r.Epnum
	buf[11] = r.Devnum
	binary.LittleEndian.PutUint16(buf[12:14], r.Busnum)
	buf[14] = '-'
	if len(r.Payload) > 0 {
		buf[15] = 0
	} else {
		buf[15] = '<'
	}
	binary.LittleEndian.PutUint64(buf[16:24], uint64(r.TsSec))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(r.TsUsec))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(r.Status))
	binary.LittleEndian.PutUint32(buf[32:36], r.Length)
	binary.LittleEndian.PutUint32(buf[36:40], r.CapLen)
	copy(buf[headerSize:], r.Payload)
	return buf
}

// Concat joins encoded records into one buffer.
func Concat(records ...BinaryRecord) []byte {
	var out []byte
	for _, r := range records {
		out = append(out, r.Bytes()...)
	}
	return out
}

// TextBulkIn renders a bulk IN completion line in the usbmon "u" format.
func TextBulkIn(bus uint16, dev byte, n int, micros uint64) string {
	return fmt.Sprintf("ffff88007c861a00 %d C Bi:%d:%03d:1 0 %d =", micros, bus, dev, n)
}

// Lines joins lines with a trailing newline each.
func Lines(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}
