package orchestrators

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"usbtop/internal/aggregators"
	"usbtop/internal/captures"
	"usbtop/internal/events"
	"usbtop/internal/models"
	"usbtop/internal/shared/loggers"
	"usbtop/internal/shared/metrics"
	"usbtop/internal/shared/svcerrors"
	"usbtop/internal/shared/ulid"

	"github.com/jonboulle/clockwork"
)

const (
	defaultTickInterval     = time.Second
	defaultStaleGrace       = 5 * time.Second
	defaultStaleEvictFactor = 10
	defaultEventQueueSize   = 1024
	defaultDrainTimeout     = 2 * time.Second
)

type Orchestrator interface {
	// Run captures until ctx is cancelled or every source has failed. It returns nil on
	// cancellation and ErrNoActiveSources when no source is left.
	Run(ctx context.Context) error
	State() State
	// Latest returns the last published snapshot, nil before the first tick.
	Latest() *models.TickSnapshot
	// Snapshot returns the stats of key as of the latest tick.
	Snapshot(key models.DeviceKey) (models.BandwidthStats, bool)
	Evict(ctx context.Context, key models.DeviceKey) error
	ResetPeak(ctx context.Context, key models.DeviceKey) error
}

type Config struct {
	TickInterval     time.Duration
	StaleGrace       time.Duration
	StaleEvictFactor int
	EventQueueSize   int
	DrainTimeout     time.Duration
	Clock            clockwork.Clock
	Logger           loggers.Logger
}

func (c *Config) setDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.StaleGrace <= 0 {
		c.StaleGrace = defaultStaleGrace
	}
	if c.StaleEvictFactor <= 0 {
		c.StaleEvictFactor = defaultStaleEvictFactor
	}
	if c.EventQueueSize <= 0 {
		c.EventQueueSize = defaultEventQueueSize
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
}

type commandKind int

const (
	commandEvict commandKind = iota
	commandResetPeak
)

type command struct {
	kind  commandKind
	key   models.DeviceKey
	reply chan error
}

// sourceEnded is sent once by a pump whose source failed outside of shutdown.
type sourceEnded struct {
	bus uint16
	err error
}

type orchestrator struct {
	sources    []captures.CaptureSource
	aggregator aggregators.BandwidthAggregator
	renderers  []Renderer
	config     Config
	logger     loggers.Logger

	state    atomic.Int32
	latest   atomic.Pointer[models.TickSnapshot]
	commands chan command
	done     chan struct{}

	// Owned by the Run goroutine.
	sequence          uint64
	pendingConditions []models.SourceCondition
	pendingEvicted    []models.DeviceKey

	routed atomic.Uint64
}

// NewOrchestrator wires capture sources into the aggregator. The orchestrator becomes the
// aggregator's only caller; nothing else may touch it once Run starts.
func NewOrchestrator(sources []captures.CaptureSource, aggregator aggregators.BandwidthAggregator, renderers []Renderer, config Config) Orchestrator {
	config.setDefaults()
	return &orchestrator{
		sources:    sources,
		aggregator: aggregator,
		renderers:  renderers,
		config:     config,
		logger:     config.Logger.With().Str(loggers.FieldComponent, "orchestrator").Logger(),
		commands:   make(chan command),
		done:       make(chan struct{}),
	}
}

func (o *orchestrator) State() State {
	return State(o.state.Load())
}

func (o *orchestrator) setState(state State) {
	o.state.Store(int32(state))
	o.logger.Info().Str(loggers.FieldState, state.String()).Msg("state changed")
}

func (o *orchestrator) Latest() *models.TickSnapshot {
	return o.latest.Load()
}

func (o *orchestrator) Snapshot(key models.DeviceKey) (models.BandwidthStats, bool) {
	return o.Latest().Lookup(key)
}

func (o *orchestrator) Evict(ctx context.Context, key models.DeviceKey) error {
	return o.submit(ctx, command{kind: commandEvict, key: key, reply: make(chan error, 1)})
}

func (o *orchestrator) ResetPeak(ctx context.Context, key models.DeviceKey) error {
	return o.submit(ctx, command{kind: commandResetPeak, key: key, reply: make(chan error, 1)})
}

func (o *orchestrator) submit(ctx context.Context, cmd command) error {
	if state := o.State(); state != StateRunning {
		return errNotRunning(state)
	}
	select {
	case o.commands <- cmd:
	case <-o.done:
		return errNotRunning(o.State())
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *orchestrator) Run(ctx context.Context) error {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return errAlreadyStarted()
	}
	defer close(o.done)

	o.logger = o.logger.With().Str(loggers.FieldRunID, ulid.NewULID()).Logger()
	ctx = o.logger.WithContext(ctx)
	o.logger.Info().Int("sources", len(o.sources)).Msg("orchestrator running")

	pumpCtx, cancelPumps := context.WithCancel(ctx)
	defer cancelPumps()

	eventCh := make(chan events.TrafficEvent, o.config.EventQueueSize)
	endedCh := make(chan sourceEnded, len(o.sources))
	var wg sync.WaitGroup
	for _, source := range o.sources {
		source := source
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.pump(pumpCtx, source, eventCh, endedCh)
		}()
	}

	ticker := o.config.Clock.NewTicker(o.config.TickInterval)
	defer ticker.Stop()

	active := len(o.sources)
	if active == 0 {
		return o.fail(ctx, cancelPumps, &wg, eventCh)
	}

	for {
		select {
		case <-ctx.Done():
			o.drain(cancelPumps, &wg, eventCh)
			return nil

		case event := <-eventCh:
			o.route(ctx, &event)

		case <-ticker.Chan():
			o.tick(ctx)

		case cmd := <-o.commands:
			cmd.reply <- o.apply(cmd)

		case ended := <-endedCh:
			o.sourceFailed(ended)
			active--
			if active == 0 {
				return o.fail(ctx, cancelPumps, &wg, eventCh)
			}
		}
	}
}

// pump feeds one source into the fan-in channel until it fails or shutdown begins.
// A panicking source ends only its own bus.
func (o *orchestrator) pump(ctx context.Context, source captures.CaptureSource, out chan<- events.TrafficEvent, ended chan<- sourceEnded) {
	report := func(err error) {
		if ctx.Err() != nil || captures.IsClosed(err) {
			return
		}
		ended <- sourceEnded{bus: source.Bus(), err: err}
	}
	defer func() {
		if r := recover(); r != nil {
			loggers.Ctx(ctx).Error().
				Bytes(loggers.FieldErrorStack, debug.Stack()).
				Uint16(loggers.FieldBusID, source.Bus()).
				Msg("capture source panic recovered")

			var panicErr error
			if err, ok := r.(error); ok {
				panicErr = err
			} else {
				panicErr = fmt.Errorf("%v", r)
			}
			report(svcerrors.NewInternalErrorPanic(panicErr))
		}
	}()

	if err := source.Open(ctx); err != nil {
		report(err)
		return
	}
	for {
		event, err := source.Next(ctx)
		if err != nil {
			report(err)
			return
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}

func (o *orchestrator) route(ctx context.Context, event *events.TrafficEvent) {
	defer func() {
		if r := recover(); r != nil {
			loggers.Ctx(ctx).Error().
				Bytes(loggers.FieldErrorStack, debug.Stack()).
				Str(loggers.FieldDeviceKey, event.Key().String()).
				Msg("event handling panic recovered")

			var panicErr error
			if err, ok := r.(error); ok {
				panicErr = err
			} else {
				panicErr = fmt.Errorf("%v", r)
			}
			svcErr := svcerrors.NewInternalErrorPanic(panicErr)
			metricEventsRoutedTotal.WithLabelValues(svcErr.Code).Inc()
		}
		o.routed.Add(1)
	}()

	o.aggregator.Observe(event)
	metricEventsRoutedTotal.WithLabelValues(metrics.ValueNoError).Inc()
}

func (o *orchestrator) apply(cmd command) error {
	switch cmd.kind {
	case commandEvict:
		if !o.aggregator.Evict(cmd.key) {
			return errUnknownKey(cmd.key)
		}
		o.pendingEvicted = append(o.pendingEvicted, cmd.key)
		o.logger.Info().Str(loggers.FieldDeviceKey, cmd.key.String()).Msg("evicted on request")
		return nil
	case commandResetPeak:
		if !o.aggregator.ResetPeak(cmd.key) {
			return errUnknownKey(cmd.key)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %d", cmd.kind)
	}
}

// tick snapshots every key, drops keys idle past the hard ceiling and publishes the
// result to readers and renderers.
func (o *orchestrator) tick(ctx context.Context) {
	buses, devices := o.aggregator.SnapshotAll()
	ceiling := o.config.StaleGrace * time.Duration(o.config.StaleEvictFactor)
	evicted := append(o.pendingEvicted, o.aggregator.EvictStale(ceiling)...)
	models.SortKeys(evicted)

	o.sequence++
	snapshot := &models.TickSnapshot{
		Sequence:   o.sequence,
		TakenAt:    o.config.Clock.Now(),
		Buses:      buses,
		Devices:    devices,
		Evicted:    evicted,
		Conditions: o.pendingConditions,
	}
	o.pendingConditions = nil
	o.pendingEvicted = nil

	o.latest.Store(snapshot)
	metricTicksTotal.Inc()

	for _, renderer := range o.renderers {
		if err := renderer.Render(ctx, snapshot); err != nil {
			o.logger.Warn().Err(err).Uint64(loggers.FieldSequence, snapshot.Sequence).Msg("render failed")
		}
	}
}

func (o *orchestrator) sourceFailed(ended sourceEnded) {
	condition := models.SourceCondition{
		Bus:      ended.bus,
		Severity: models.SeverityWarning,
		Kind:     captures.KindOf(ended.err),
		Message:  ended.err.Error(),
		At:       o.config.Clock.Now(),
	}
	if svcErr, ok := svcerrors.AsServiceError(ended.err); ok {
		condition.Code = svcErr.Code
	}
	o.raise(condition)
	o.aggregator.MarkBusStale(ended.bus)
}

func (o *orchestrator) raise(condition models.SourceCondition) {
	o.pendingConditions = append(o.pendingConditions, condition)
	metricSourceConditionsTotal.WithLabelValues(string(condition.Severity), condition.Code).Inc()

	event := o.logger.Warn()
	if condition.Severity == models.SeverityFatal {
		event = o.logger.Error()
	}
	event.
		Uint16(loggers.FieldBusID, condition.Bus).
		Str(loggers.FieldErrorKind, string(condition.Kind)).
		Str(loggers.FieldErrorCode, condition.Code).
		Msg(condition.Message)
}

// fail publishes a last snapshot carrying the fatal condition, then shuts down.
func (o *orchestrator) fail(ctx context.Context, cancelPumps context.CancelFunc, wg *sync.WaitGroup, eventCh <-chan events.TrafficEvent) error {
	o.raise(models.SourceCondition{
		Severity: models.SeverityFatal,
		Kind:     models.CaptureErrorNoActiveSources,
		Code:     ErrNoActiveSources.Code,
		Message:  ErrNoActiveSources.Message,
		At:       o.config.Clock.Now(),
	})
	o.tick(ctx)
	o.drain(cancelPumps, wg, eventCh)
	return ErrNoActiveSources
}

// drain closes every source and waits for the pumps, bounded by the drain timeout.
// Events still queued are discarded.
func (o *orchestrator) drain(cancelPumps context.CancelFunc, wg *sync.WaitGroup, eventCh <-chan events.TrafficEvent) {
	o.setState(StateDraining)
	cancelPumps()
	for _, source := range o.sources {
		if err := source.Close(); err != nil {
			o.logger.Warn().Err(err).Uint16(loggers.FieldBusID, source.Bus()).Msg("close failed")
		}
	}

	pumpsDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(pumpsDone)
	}()

	timeout := o.config.Clock.After(o.config.DrainTimeout)
	discarded := 0
loop:
	for {
		select {
		case <-eventCh:
			discarded++
		case <-pumpsDone:
			break loop
		case <-timeout:
			o.logger.Warn().Msg("capture sources did not stop before the drain timeout")
			break loop
		}
	}
	for len(eventCh) > 0 {
		<-eventCh
		discarded++
	}

	o.logger.Info().Int("discarded_events", discarded).Msg("drained")
	o.setState(StateStopped)
}
