package aggregators_test

import (
	"testing"
	"time"

	"usbtop/internal/aggregators"
	"usbtop/internal/aggregators/mocks"
	"usbtop/internal/events"
	"usbtop/internal/models"
	"usbtop/internal/shared/loggers"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	bus1      = models.BusKey(1)
	device1_2 = models.DeviceKey{Bus: 1, Address: 2}
	device1_3 = models.DeviceKey{Bus: 1, Address: 3}
)

func callback(bus uint16, address uint8, dir events.Direction, n uint32) *events.TrafficEvent {
	return &events.TrafficEvent{
		URBType:       events.URBCallback,
		BusID:         bus,
		DeviceAddress: address,
		Endpoint:      0x81,
		TransferType:  events.TransferBulk,
		Direction:     dir,
		ByteCount:     n,
	}
}

func newAggregator(t *testing.T, clock clockwork.Clock, dm aggregators.DeviceManager, mutate ...func(*aggregators.Config)) aggregators.BandwidthAggregator {
	t.Helper()

	cfg := aggregators.Config{Clock: clock, Logger: loggers.Nop()}
	for _, m := range mutate {
		m(&cfg)
	}
	agg, err := aggregators.NewBandwidthAggregator(dm, cfg)
	require.NoError(t, err)
	return agg
}

func TestNewBandwidthAggregator_RejectsBadWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		history time.Duration
		bucket  time.Duration
	}{
		{name: "bucket wider than history", history: time.Second, bucket: 2 * time.Second},
		{name: "negative bucket", history: time.Minute, bucket: -time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := aggregators.NewBandwidthAggregator(nil, aggregators.Config{
				HistoryWindow: tt.history,
				SampleBucket:  tt.bucket,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "AGG_1000")
		})
	}
}

func TestBandwidthAggregator_RateWithinOneBucket(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 200_000_000))
	agg := newAggregator(t, clock, nil)

	for i := 0; i < 4; i++ {
		agg.Observe(callback(1, 2, events.DirectionIn, 256))
	}

	stats, ok := agg.Snapshot(device1_2)
	require.True(t, ok)
	assert.Equal(t, float64(1024), stats.RxBytesPerSec)
	assert.Equal(t, float64(0), stats.TxBytesPerSec)
	assert.Equal(t, uint64(1024), stats.TotalRxBytes)
	require.Len(t, stats.History, 1)
	assert.True(t, stats.History[0].Start.Equal(time.Unix(1000, 0)))
}

func TestBandwidthAggregator_RateAcrossBuckets(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(1, 2, events.DirectionIn, 512))
	clock.Advance(time.Second)
	agg.Observe(callback(1, 2, events.DirectionIn, 512))
	clock.Advance(time.Second)
	agg.Observe(callback(1, 2, events.DirectionIn, 512))

	stats, ok := agg.Snapshot(device1_2)
	require.True(t, ok)
	assert.Equal(t, float64(512), stats.RxBytesPerSec)
	assert.GreaterOrEqual(t, stats.PeakBytesPerSec, float64(512))
	assert.Len(t, stats.History, 3)

	busStats, ok := agg.Snapshot(bus1)
	require.True(t, ok)
	assert.Equal(t, float64(512), busStats.RxBytesPerSec)
}

func TestBandwidthAggregator_OnlySuccessfulCallbacksCount(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	submission := callback(1, 2, events.DirectionOut, 4096)
	submission.URBType = events.URBSubmission
	failed := callback(1, 2, events.DirectionIn, 4096)
	failed.Status = events.Status{Code: -32}
	errored := callback(1, 2, events.DirectionIn, 4096)
	errored.URBType = events.URBError

	agg.Observe(submission)
	agg.Observe(failed)
	agg.Observe(errored)
	agg.Observe(callback(1, 2, events.DirectionOut, 100))

	stats, ok := agg.Snapshot(device1_2)
	require.True(t, ok)
	assert.Equal(t, float64(0), stats.RxBytesPerSec)
	assert.Equal(t, float64(100), stats.TxBytesPerSec)
	assert.Equal(t, uint64(100), stats.TotalTxBytes)
	assert.True(t, stats.LastActivity.Equal(clock.Now()))
}

func TestBandwidthAggregator_SubmissionCreatesKeyWithoutBytes(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	submission := callback(1, 2, events.DirectionOut, 64)
	submission.URBType = events.URBSubmission
	agg.Observe(submission)

	stats, ok := agg.Snapshot(device1_2)
	require.True(t, ok)
	assert.Equal(t, float64(0), stats.BytesPerSec())
	assert.Empty(t, stats.History)
}

func TestBandwidthAggregator_AddressZeroCountsTowardBusOnly(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(1, 0, events.DirectionIn, 18))

	assert.Equal(t, []models.DeviceKey{bus1}, agg.Keys())
	stats, ok := agg.Snapshot(bus1)
	require.True(t, ok)
	assert.Equal(t, float64(18), stats.RxBytesPerSec)
}

func TestBandwidthAggregator_PeakNeverDecreases(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(1, 2, events.DirectionIn, 10_000))
	first, _ := agg.Snapshot(device1_2)
	assert.Equal(t, float64(10_000), first.PeakBytesPerSec)

	previous := first.PeakBytesPerSec
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		agg.Observe(callback(1, 2, events.DirectionIn, 10))

		stats, ok := agg.Snapshot(device1_2)
		require.True(t, ok)
		assert.Less(t, stats.BytesPerSec(), previous)
		assert.GreaterOrEqual(t, stats.PeakBytesPerSec, previous)
		previous = stats.PeakBytesPerSec
	}

	require.True(t, agg.ResetPeak(device1_2))
	reset, _ := agg.Snapshot(device1_2)
	assert.Equal(t, reset.BytesPerSec(), reset.PeakBytesPerSec)
	assert.Less(t, reset.PeakBytesPerSec, float64(10_000))

	assert.False(t, agg.ResetPeak(models.DeviceKey{Bus: 9, Address: 9}))
}

func TestBandwidthAggregator_WindowDrainsToZero(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil, func(c *aggregators.Config) {
		c.HistoryWindow = 10 * time.Second
	})

	agg.Observe(callback(1, 2, events.DirectionIn, 1000))
	clock.Advance(9 * time.Second)

	stats, _ := agg.Snapshot(device1_2)
	assert.Equal(t, float64(100), stats.RxBytesPerSec, "last bucket inside the horizon")

	clock.Advance(time.Second)
	stats, ok := agg.Snapshot(device1_2)
	require.True(t, ok, "an idle key stays queryable")
	assert.Equal(t, float64(0), stats.RxBytesPerSec)
	assert.Empty(t, stats.History)
	assert.Equal(t, float64(100), stats.PeakBytesPerSec, "peak only tracks observed snapshots")
	assert.Equal(t, uint64(1000), stats.TotalRxBytes)
}

func TestBandwidthAggregator_HistoryIsBounded(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil, func(c *aggregators.Config) {
		c.HistoryWindow = 5 * time.Second
		c.SampleBucket = 2 * time.Second
	})

	for i := 0; i < 40; i++ {
		agg.Observe(callback(1, 2, events.DirectionIn, 1))
		clock.Advance(time.Second)
	}

	stats, _ := agg.Snapshot(device1_2)
	assert.LessOrEqual(t, len(stats.History), 3)
	for i := 1; i < len(stats.History); i++ {
		assert.True(t, stats.History[i-1].Start.Before(stats.History[i].Start))
	}
}

func TestBandwidthAggregator_Staleness(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(1, 2, events.DirectionIn, 1))

	clock.Advance(5 * time.Second)
	stats, _ := agg.Snapshot(device1_2)
	assert.False(t, stats.Stale, "exactly the grace period is not stale yet")

	clock.Advance(time.Second)
	stats, ok := agg.Snapshot(device1_2)
	require.True(t, ok)
	assert.True(t, stats.Stale)

	agg.Observe(callback(1, 2, events.DirectionIn, 1))
	stats, _ = agg.Snapshot(device1_2)
	assert.False(t, stats.Stale)
}

func TestBandwidthAggregator_MarkBusStale(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(1, 2, events.DirectionIn, 1))
	agg.Observe(callback(2, 2, events.DirectionIn, 1))

	agg.MarkBusStale(1)

	buses, devices := agg.SnapshotAll()
	require.Len(t, buses, 2)
	require.Len(t, devices, 2)
	assert.True(t, buses[0].Stale)
	assert.True(t, devices[0].Stale)
	assert.False(t, buses[1].Stale)
	assert.False(t, devices[1].Stale)

	agg.Observe(callback(1, 2, events.DirectionIn, 1))
	stats, _ := agg.Snapshot(device1_2)
	assert.False(t, stats.Stale)
}

func TestBandwidthAggregator_Utilization(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dm := mocks.NewMockDeviceManager(ctrl)
	dm.EXPECT().LookupCapacity(device1_2).Return(models.SpeedFull.PracticalBitRate()).AnyTimes()
	dm.EXPECT().LookupNegotiatedSpeed(device1_2).Return(models.SpeedFull).AnyTimes()
	dm.EXPECT().LookupCapacity(device1_3).Return(models.SpeedHigh.PracticalBitRate()).AnyTimes()
	dm.EXPECT().LookupNegotiatedSpeed(device1_3).Return(models.SpeedHigh).AnyTimes()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, dm)

	// Full speed practical capacity is 1.2 MB/s.
	agg.Observe(callback(1, 2, events.DirectionIn, 120_000))
	agg.Observe(callback(1, 3, events.DirectionOut, 4_680_000))

	buses, devices := agg.SnapshotAll()
	require.Len(t, devices, 2)
	require.Len(t, buses, 1)

	assert.Equal(t, models.SpeedFull, devices[0].Speed)
	assert.InDelta(t, 0.1, devices[0].Utilization, 1e-9)
	assert.InDelta(t, 0.0975, devices[1].Utilization, 1e-9)

	// The bus is measured against its fastest device: 4.8 MB over 48 MB/s.
	assert.Equal(t, models.SpeedHigh, buses[0].Speed)
	assert.Equal(t, models.SpeedHigh.PracticalBitRate(), buses[0].CapacityBitsPerSec)
	assert.InDelta(t, 0.1, buses[0].Utilization, 1e-9)

	single, ok := agg.Snapshot(bus1)
	require.True(t, ok)
	assert.InDelta(t, buses[0].Utilization, single.Utilization, 1e-9)

	// Address-0 traffic shows in the bus rates but not in device utilization.
	agg.Observe(callback(1, 0, events.DirectionIn, 2_000_000))
	withEnumeration, ok := agg.Snapshot(bus1)
	require.True(t, ok)
	assert.InDelta(t, single.RxBytesPerSec+2_000_000, withEnumeration.RxBytesPerSec, 1e-6)
	assert.InDelta(t, 0.1, withEnumeration.Utilization, 1e-9)

	// Saturation clamps.
	agg.Observe(callback(1, 2, events.DirectionIn, 10_000_000))
	clamped, _ := agg.Snapshot(device1_2)
	assert.Equal(t, float64(1), clamped.Utilization)
}

func TestBandwidthAggregator_UnknownCapacityMeansZeroUtilization(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(1, 2, events.DirectionIn, 1_000_000))

	buses, devices := agg.SnapshotAll()
	assert.Equal(t, float64(0), devices[0].Utilization)
	assert.Equal(t, models.SpeedUnknown, devices[0].Speed)
	assert.Equal(t, float64(0), buses[0].Utilization)
	assert.Equal(t, models.SpeedUnknown, buses[0].Speed)
}

func TestBandwidthAggregator_Evict(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(1, 2, events.DirectionIn, 1))

	assert.True(t, agg.Evict(device1_2))
	assert.False(t, agg.Evict(device1_2))

	_, ok := agg.Snapshot(device1_2)
	assert.False(t, ok)
	assert.Equal(t, []models.DeviceKey{bus1}, agg.Keys())
}

func TestBandwidthAggregator_EvictStale(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	agg := newAggregator(t, clock, nil)

	agg.Observe(callback(2, 7, events.DirectionIn, 1))
	agg.Observe(callback(1, 3, events.DirectionIn, 1))
	clock.Advance(30 * time.Second)
	agg.Observe(callback(1, 2, events.DirectionIn, 1))
	clock.Advance(25 * time.Second)

	evicted := agg.EvictStale(50 * time.Second)
	assert.Equal(t, []models.DeviceKey{device1_3, models.BusKey(2), {Bus: 2, Address: 7}}, evicted)
	assert.Equal(t, []models.DeviceKey{bus1, device1_2}, agg.Keys())

	assert.Nil(t, agg.EvictStale(50*time.Second))
}
