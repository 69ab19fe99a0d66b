package models

import "time"

// WindowSample is one bucket of a bandwidth history.
type WindowSample struct {
	Start   time.Time `json:"start"`
	RxBytes uint64    `json:"rxBytes"`
	TxBytes uint64    `json:"txBytes"`
}

func (s WindowSample) TotalBytes() uint64 {
	return s.RxBytes + s.TxBytes
}

// BucketIndex returns the number of whole buckets of the given width since the Unix epoch.
// Times before the epoch are floored, not truncated toward zero.
func BucketIndex(t time.Time, width time.Duration) int64 {
	nanos := t.UnixNano()
	w := width.Nanoseconds()
	idx := nanos / w
	if nanos < 0 && nanos%w != 0 {
		idx--
	}
	return idx
}

// BucketStart is the inverse of BucketIndex.
func BucketStart(index int64, width time.Duration) time.Time {
	return time.Unix(0, index*width.Nanoseconds()).UTC()
}
