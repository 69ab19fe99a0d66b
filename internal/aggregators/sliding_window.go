package aggregators

import (
	"time"

	"usbtop/internal/models"
)

type windowBucket struct {
	index int64
	used  bool
	rx    uint64
	tx    uint64
}

// slidingWindow is a fixed ring of time buckets. A slot is reused for index i when
// i ≡ slot (mod len); buckets that fell out of the horizon are cleared before an insert.
type slidingWindow struct {
	width   time.Duration
	buckets []windowBucket
	newest  int64
	started bool
}

func newSlidingWindow(width time.Duration, slots int) *slidingWindow {
	return &slidingWindow{width: width, buckets: make([]windowBucket, slots)}
}

func (w *slidingWindow) slot(index int64) int {
	n := int64(len(w.buckets))
	return int(((index % n) + n) % n)
}

// expired reports whether a bucket is outside the horizon seen from nowIdx.
func (w *slidingWindow) expired(b windowBucket, nowIdx int64) bool {
	return b.index <= nowIdx-int64(len(w.buckets)) || b.index > nowIdx
}

func (w *slidingWindow) add(index int64, rx, tx uint64) {
	if !w.started || index > w.newest {
		for i := range w.buckets {
			if w.buckets[i].used && w.expired(w.buckets[i], index) {
				w.buckets[i] = windowBucket{}
			}
		}
		w.newest = index
		w.started = true
	}
	if index <= w.newest-int64(len(w.buckets)) {
		// Older than anything the ring can hold.
		return
	}

	b := &w.buckets[w.slot(index)]
	if !b.used || b.index != index {
		*b = windowBucket{index: index, used: true}
	}
	b.rx += rx
	b.tx += tx
}

// rates returns rx and tx bytes per second over the retained buckets. The elapsed time
// runs from the start of the oldest retained bucket to the end of the current one.
func (w *slidingWindow) rates(nowIdx int64) (rx, tx float64) {
	var sumRx, sumTx uint64
	oldest, found := int64(0), false
	for _, b := range w.buckets {
		if !b.used || w.expired(b, nowIdx) {
			continue
		}
		sumRx += b.rx
		sumTx += b.tx
		if !found || b.index < oldest {
			oldest, found = b.index, true
		}
	}
	if !found {
		return 0, 0
	}

	elapsed := time.Duration(nowIdx-oldest+1) * w.width
	if horizon := time.Duration(len(w.buckets)) * w.width; elapsed > horizon {
		elapsed = horizon
	}
	seconds := elapsed.Seconds()
	return float64(sumRx) / seconds, float64(sumTx) / seconds
}

// history returns the retained buckets, oldest first.
func (w *slidingWindow) history(nowIdx int64) []models.WindowSample {
	samples := make([]models.WindowSample, 0, len(w.buckets))
	first := nowIdx - int64(len(w.buckets)) + 1
	for idx := first; idx <= nowIdx; idx++ {
		b := w.buckets[w.slot(idx)]
		if !b.used || b.index != idx {
			continue
		}
		samples = append(samples, models.WindowSample{
			Start:   models.BucketStart(idx, w.width),
			RxBytes: b.rx,
			TxBytes: b.tx,
		})
	}
	return samples
}
