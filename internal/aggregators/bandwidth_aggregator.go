package aggregators

import (
	"time"

	"usbtop/internal/events"
	"usbtop/internal/models"
	"usbtop/internal/shared/loggers"

	"github.com/jonboulle/clockwork"
)

const (
	defaultHistoryWindow = 60 * time.Second
	defaultSampleBucket  = time.Second
	defaultStaleGrace    = 5 * time.Second
)

// BandwidthAggregator keeps per-device and per-bus rolling statistics. It is not safe for
// concurrent use: one goroutine observes and snapshots, everybody else reads copies.
type BandwidthAggregator interface {
	// Observe folds one event into its device key and its bus key. Events for address 0
	// only reach the bus key.
	Observe(event *events.TrafficEvent)
	// Snapshot returns a copy of the stats for key, false when the key is unknown.
	Snapshot(key models.DeviceKey) (models.BandwidthStats, bool)
	// SnapshotAll returns every bus and device, each sorted by key.
	SnapshotAll() (buses, devices []models.BandwidthStats)
	Evict(key models.DeviceKey) bool
	ResetPeak(key models.DeviceKey) bool
	// MarkBusStale flags every key of bus as stale until it observes again.
	MarkBusStale(bus uint16)
	// EvictStale removes keys idle for longer than ceiling and returns them sorted.
	EvictStale(ceiling time.Duration) []models.DeviceKey
	Keys() []models.DeviceKey
}

type Config struct {
	HistoryWindow time.Duration
	SampleBucket  time.Duration
	StaleGrace    time.Duration
	Clock         clockwork.Clock
	Logger        loggers.Logger
}

func (c *Config) setDefaults() {
	if c.HistoryWindow == 0 {
		c.HistoryWindow = defaultHistoryWindow
	}
	if c.SampleBucket == 0 {
		c.SampleBucket = defaultSampleBucket
	}
	if c.StaleGrace == 0 {
		c.StaleGrace = defaultStaleGrace
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
}

type entry struct {
	window       *slidingWindow
	peak         float64
	totalRx      uint64
	totalTx      uint64
	lastActivity time.Time
	forcedStale  bool
}

type bandwidthAggregator struct {
	config        Config
	slots         int
	deviceManager DeviceManager
	logger        loggers.Logger
	entries       map[models.DeviceKey]*entry
}

// NewBandwidthAggregator returns an empty aggregator. A nil deviceManager reports unknown
// capacity for every key, which keeps utilization at 0.
func NewBandwidthAggregator(deviceManager DeviceManager, config Config) (BandwidthAggregator, error) {
	config.setDefaults()
	if config.SampleBucket <= 0 || config.SampleBucket > config.HistoryWindow {
		return nil, errInvalidWindow(config.HistoryWindow, config.SampleBucket)
	}
	if deviceManager == nil {
		deviceManager = unknownCapacity{}
	}

	slots := int(config.HistoryWindow / config.SampleBucket)
	if config.HistoryWindow%config.SampleBucket != 0 {
		slots++
	}

	return &bandwidthAggregator{
		config:        config,
		slots:         slots,
		deviceManager: deviceManager,
		logger:        config.Logger.With().Str(loggers.FieldComponent, "bandwidth_aggregator").Logger(),
		entries:       make(map[models.DeviceKey]*entry),
	}, nil
}

func (a *bandwidthAggregator) Observe(event *events.TrafficEvent) {
	metricEventsObservedTotal.WithLabelValues(string(event.URBType)).Inc()

	now := a.config.Clock.Now()
	idx := models.BucketIndex(now, a.config.SampleBucket)

	var rx, tx uint64
	if counted := uint64(event.CountedBytes()); counted > 0 {
		if event.Direction == events.DirectionIn {
			rx = counted
		} else {
			tx = counted
		}
	}

	a.touch(models.BusKey(event.BusID), now, idx, rx, tx)
	if event.DeviceAddress != 0 {
		a.touch(event.Key(), now, idx, rx, tx)
	}
}

func (a *bandwidthAggregator) touch(key models.DeviceKey, now time.Time, idx int64, rx, tx uint64) {
	e, ok := a.entries[key]
	if !ok {
		e = &entry{window: newSlidingWindow(a.config.SampleBucket, a.slots)}
		a.entries[key] = e
	}
	e.lastActivity = now
	e.forcedStale = false
	if rx == 0 && tx == 0 {
		return
	}
	e.window.add(idx, rx, tx)
	e.totalRx += rx
	e.totalTx += tx
}

func (a *bandwidthAggregator) Snapshot(key models.DeviceKey) (models.BandwidthStats, bool) {
	e, ok := a.entries[key]
	if !ok {
		return models.BandwidthStats{}, false
	}

	now := a.config.Clock.Now()
	idx := models.BucketIndex(now, a.config.SampleBucket)

	if !key.IsBus() {
		return a.deviceStats(key, e, now, idx), true
	}

	var load busLoad
	for other, device := range a.entries {
		if other.IsBus() || other.Bus != key.Bus {
			continue
		}
		rx, tx := device.window.rates(idx)
		load.add(rx+tx, a.deviceManager.LookupCapacity(other), a.deviceManager.LookupNegotiatedSpeed(other))
	}
	return a.busStats(key, e, now, idx, load), true
}

func (a *bandwidthAggregator) SnapshotAll() (buses, devices []models.BandwidthStats) {
	now := a.config.Clock.Now()
	idx := models.BucketIndex(now, a.config.SampleBucket)

	keys := a.Keys()
	loads := make(map[uint16]*busLoad)
	for _, key := range keys {
		if key.IsBus() {
			continue
		}
		stats := a.deviceStats(key, a.entries[key], now, idx)
		devices = append(devices, stats)

		load, ok := loads[key.Bus]
		if !ok {
			load = &busLoad{}
			loads[key.Bus] = load
		}
		load.add(stats.BytesPerSec(), stats.CapacityBitsPerSec, stats.Speed)
	}
	for _, key := range keys {
		if !key.IsBus() {
			continue
		}
		var load busLoad
		if l, ok := loads[key.Bus]; ok {
			load = *l
		}
		buses = append(buses, a.busStats(key, a.entries[key], now, idx, load))
	}
	return buses, devices
}

func (a *bandwidthAggregator) deviceStats(key models.DeviceKey, e *entry, now time.Time, idx int64) models.BandwidthStats {
	stats := a.baseStats(key, e, now, idx)
	stats.Speed = a.deviceManager.LookupNegotiatedSpeed(key)
	stats.CapacityBitsPerSec = a.deviceManager.LookupCapacity(key)
	stats.Utilization = utilization(stats.BytesPerSec(), stats.CapacityBitsPerSec)
	return stats
}

func (a *bandwidthAggregator) busStats(key models.DeviceKey, e *entry, now time.Time, idx int64, load busLoad) models.BandwidthStats {
	stats := a.baseStats(key, e, now, idx)
	if load.speed != "" {
		stats.Speed = load.speed
	}
	stats.CapacityBitsPerSec = load.capacity
	stats.Utilization = utilization(load.throughput, load.capacity)
	return stats
}

// baseStats computes the window rates and folds them into the peak.
func (a *bandwidthAggregator) baseStats(key models.DeviceKey, e *entry, now time.Time, idx int64) models.BandwidthStats {
	rx, tx := e.window.rates(idx)
	if total := rx + tx; total > e.peak {
		e.peak = total
	}
	return models.BandwidthStats{
		Key:             key,
		RxBytesPerSec:   rx,
		TxBytesPerSec:   tx,
		PeakBytesPerSec: e.peak,
		Speed:           models.SpeedUnknown,
		TotalRxBytes:    e.totalRx,
		TotalTxBytes:    e.totalTx,
		History:         e.window.history(idx),
		LastActivity:    e.lastActivity,
		Stale:           e.forcedStale || now.Sub(e.lastActivity) > a.config.StaleGrace,
	}
}

func (a *bandwidthAggregator) Evict(key models.DeviceKey) bool {
	if _, ok := a.entries[key]; !ok {
		return false
	}
	delete(a.entries, key)
	metricKeysEvictedTotal.WithLabelValues(evictReasonExplicit).Inc()
	a.logger.Debug().Str(loggers.FieldDeviceKey, key.String()).Msg("evicted")
	return true
}

func (a *bandwidthAggregator) ResetPeak(key models.DeviceKey) bool {
	e, ok := a.entries[key]
	if !ok {
		return false
	}
	e.peak = 0
	return true
}

func (a *bandwidthAggregator) MarkBusStale(bus uint16) {
	for key, e := range a.entries {
		if key.Bus == bus {
			e.forcedStale = true
		}
	}
}

func (a *bandwidthAggregator) EvictStale(ceiling time.Duration) []models.DeviceKey {
	now := a.config.Clock.Now()

	var evicted []models.DeviceKey
	for key, e := range a.entries {
		if now.Sub(e.lastActivity) > ceiling {
			evicted = append(evicted, key)
		}
	}
	for _, key := range evicted {
		delete(a.entries, key)
	}
	if len(evicted) == 0 {
		return nil
	}

	metricKeysEvictedTotal.WithLabelValues(evictReasonStale).Add(float64(len(evicted)))
	models.SortKeys(evicted)
	a.logger.Debug().Int("count", len(evicted)).Msg("evicted idle keys")
	return evicted
}

func (a *bandwidthAggregator) Keys() []models.DeviceKey {
	keys := make([]models.DeviceKey, 0, len(a.entries))
	for key := range a.entries {
		keys = append(keys, key)
	}
	models.SortKeys(keys)
	return keys
}

// busLoad accumulates the device side of a bus: summed throughput, the largest
// device capacity and the fastest negotiated speed. Address-0 traffic (enumeration,
// default control pipe) shows in the bus row's Rx/Tx but belongs to no device, so it
// never reaches throughput and bus Utilization covers attached devices only.
type busLoad struct {
	throughput float64
	capacity   uint64
	speed      models.Speed
}

func (l *busLoad) add(bytesPerSec float64, capacity uint64, speed models.Speed) {
	l.throughput += bytesPerSec
	if capacity > l.capacity {
		l.capacity = capacity
	}
	if l.speed == "" || speed.Faster(l.speed) {
		l.speed = speed
	}
}

// utilization is bytesPerSec over capacity, clamped to [0, 1]. Unknown capacity yields 0.
func utilization(bytesPerSec float64, capacityBits uint64) float64 {
	if capacityBits == 0 || bytesPerSec <= 0 {
		return 0
	}
	ratio := bytesPerSec / (float64(capacityBits) / 8)
	if ratio > 1 {
		return 1
	}
	return ratio
}
