package captures

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"usbtop/internal/decoders"
	"usbtop/internal/events"
	"usbtop/internal/shared/loggers"
	"usbtop/internal/shared/metrics"
	"usbtop/internal/shared/svcerrors"
	"usbtop/internal/shared/ulid"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

const (
	defaultReadBufferBytes    = 64 * 1024
	defaultMalformedThreshold = 50

	// textIdleWait is how long a text source sleeps after debugfs reports no data.
	textIdleWait = 10 * time.Millisecond

	// maxTextLineBytes bounds an unterminated text line kept between reads.
	maxTextLineBytes = 1 << 20
)

type CaptureSource interface {
	// Bus is the bus this source captures.
	Bus() uint16
	// Open resolves the usbmon path and opens it, falling back to the other format once.
	Open(ctx context.Context) error
	// Next blocks until the next event is decoded, the context ends or the source fails.
	Next(ctx context.Context) (events.TrafficEvent, error)
	// Format is the format chosen by Open.
	Format() decoders.Mode
	// Close releases the handle. Buffered bytes are discarded.
	Close() error
}

// SourceConfig configures one usbmon capture source.
type SourceConfig struct {
	Bus                uint16
	PreferBinary       bool
	Paths              Paths
	ReadBufferBytes    int
	MalformedThreshold int
	Clock              clockwork.Clock
	Logger             loggers.Logger
}

func (c *SourceConfig) setDefaults() {
	if c.Paths.BinaryRoot == "" {
		c.Paths.BinaryRoot = DefaultBinaryRoot
	}
	if c.Paths.TextRoot == "" {
		c.Paths.TextRoot = DefaultTextRoot
	}
	if c.ReadBufferBytes <= 0 {
		c.ReadBufferBytes = defaultReadBufferBytes
	}
	if c.MalformedThreshold <= 0 {
		c.MalformedThreshold = defaultMalformedThreshold
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
}

type usbmonSource struct {
	fs     afero.Fs
	config SourceConfig
	logger loggers.Logger

	mu     sync.Mutex
	file   afero.File
	mode   decoders.Mode
	path   string
	closed atomic.Bool

	// Owned by the goroutine calling Next.
	buf         []byte
	tail        []byte
	pending     []events.TrafficEvent
	pendingErr  error
	consecutive int
}

// NewUsbmonSource returns a capture source for one bus. Nothing is opened until Open.
func NewUsbmonSource(fs afero.Fs, config SourceConfig) CaptureSource {
	config.setDefaults()
	return &usbmonSource{
		fs:     fs,
		config: config,
		logger: config.Logger.With().Uint16(loggers.FieldBusID, config.Bus).Logger(),
		buf:    make([]byte, config.ReadBufferBytes),
	}
}

func (s *usbmonSource) Bus() uint16 {
	return s.config.Bus
}

func (s *usbmonSource) Format() decoders.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *usbmonSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	preferred := decoders.ModeText
	if s.config.PreferBinary {
		preferred = decoders.ModeBinary
	}
	preferredPath := s.config.Paths.For(s.config.Bus, preferred)

	file, err := s.fs.Open(preferredPath)
	if err == nil {
		s.attach(file, preferred, preferredPath)
		return nil
	}
	openErr := classify(preferredPath, err)

	alternate := alternateMode(preferred)
	alternatePath := s.config.Paths.For(s.config.Bus, alternate)
	if _, statErr := s.fs.Stat(alternatePath); statErr != nil {
		metricSessionsTotal.WithLabelValues(preferred.String(), openErr.Code).Inc()
		return openErr
	}

	s.logger.Warn().
		Err(openErr).
		Str(loggers.FieldPath, preferredPath).
		Msgf("falling back to %s format", alternate)
	metricFormatFallbacksTotal.WithLabelValues(preferred.String(), alternate.String()).Inc()

	file, err = s.fs.Open(alternatePath)
	if err != nil {
		altErr := classify(alternatePath, err)
		metricSessionsTotal.WithLabelValues(alternate.String(), altErr.Code).Inc()
		return altErr
	}
	s.attach(file, alternate, alternatePath)
	return nil
}

func (s *usbmonSource) attach(file afero.File, mode decoders.Mode, path string) {
	s.mu.Lock()
	s.file = file
	s.mode = mode
	s.path = path
	s.mu.Unlock()

	s.logger = s.logger.With().
		Str(loggers.FieldFormat, mode.String()).
		Str(loggers.FieldPath, path).
		Str(loggers.FieldSessionID, ulid.NewULID()).
		Logger()
	s.logger.Info().Msg("capture opened")
}

func (s *usbmonSource) Next(ctx context.Context) (events.TrafficEvent, error) {
	for {
		if len(s.pending) > 0 {
			event := s.pending[0]
			s.pending = s.pending[1:]
			return event, nil
		}
		if s.pendingErr != nil {
			return events.TrafficEvent{}, s.pendingErr
		}
		if err := ctx.Err(); err != nil {
			return events.TrafficEvent{}, err
		}
		if err := s.fill(ctx); err != nil {
			s.pendingErr = err
		}
	}
}

// fill performs one blocking read and decodes whatever is complete.
func (s *usbmonSource) fill(ctx context.Context) error {
	s.mu.Lock()
	file, mode, path := s.file, s.mode, s.path
	s.mu.Unlock()
	if file == nil || s.closed.Load() {
		return errSourceClosed(path)
	}

	n, readErr := file.Read(s.buf)
	if s.closed.Load() {
		// Shutdown discards whatever arrived with the last read.
		s.tail = nil
		return errSourceClosed(path)
	}

	if n > 0 {
		metricBytesReadTotal.WithLabelValues(mode.String()).Add(float64(n))
		if err := s.decode(append(s.tail, s.buf[:n]...), mode, path); err != nil {
			return s.finish(mode, err)
		}
	}

	switch {
	case readErr == nil:
		return nil
	case errors.Is(readErr, io.EOF) && mode == decoders.ModeText:
		// debugfs reports EOF when no records are queued; poll again shortly.
		if n > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.config.Clock.After(textIdleWait):
			return nil
		}
	default:
		return s.finish(mode, classify(path, readErr))
	}
}

func (s *usbmonSource) decode(raw []byte, mode decoders.Mode, path string) *svcerrors.ServiceError {
	result := decoders.Decode(raw, mode)
	s.tail = result.Tail

	for i := range result.Events {
		if result.Events[i].BusID == 0 {
			result.Events[i].BusID = s.config.Bus
		}
	}
	s.pending = append(s.pending, result.Events...)

	if len(result.Events) > 0 {
		metricDecodedRecordsTotal.WithLabelValues(mode.String(), metrics.ValueNoError).Add(float64(len(result.Events)))
	}
	for _, decErr := range result.Errors {
		metricDecodedRecordsTotal.WithLabelValues(mode.String(), decErr.Code).Inc()
		s.logger.Debug().Str(loggers.FieldErrorCode, decErr.Code).Msg(decErr.Error())
	}

	if mode == decoders.ModeText && len(s.tail) > maxTextLineBytes {
		s.tail = nil
		result.TrailingFailures++
		if len(result.Events) == 0 {
			result.LeadingFailures++
		}
	}

	// The longest run may start in an earlier read, sit between two decoded records or
	// end this buffer.
	run := max(s.consecutive+result.LeadingFailures, result.MaxFailureRun, result.TrailingFailures)
	if len(result.Events) > 0 {
		s.consecutive = result.TrailingFailures
	} else {
		s.consecutive += result.LeadingFailures
	}
	if run >= s.config.MalformedThreshold {
		return errMalformedStream(path, run)
	}
	return nil
}

func (s *usbmonSource) finish(mode decoders.Mode, err *svcerrors.ServiceError) error {
	metricSessionsTotal.WithLabelValues(mode.String(), err.Code).Inc()
	s.logger.Warn().Err(err).Str(loggers.FieldErrorCode, err.Code).Msg("capture ended")
	return err
}

func (s *usbmonSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.mu.Lock()
	file := s.file
	s.file = nil
	s.mu.Unlock()

	if file == nil {
		return nil
	}
	return file.Close()
}
