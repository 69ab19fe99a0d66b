package renderers

import (
	"context"

	"usbtop/internal/models"
	"usbtop/internal/orchestrators"
	"usbtop/internal/shared/loggers"
)

// DeviceInventory lists the devices currently attached.
type DeviceInventory interface {
	Devices() []models.DeviceInfo
}

type logRenderer struct {
	logger    loggers.Logger
	inventory DeviceInventory
	known     map[models.DeviceKey]models.DeviceInfo
}

// NewLogRenderer writes one summary line per tick, one line per condition and, when an
// inventory is given, a line whenever a device appears or goes away.
func NewLogRenderer(logger loggers.Logger, inventory DeviceInventory) orchestrators.Renderer {
	return &logRenderer{
		logger:    logger.With().Str(loggers.FieldComponent, "log_renderer").Logger(),
		inventory: inventory,
	}
}

func (r *logRenderer) Render(_ context.Context, snapshot *models.TickSnapshot) error {
	var rx, tx float64
	for _, bus := range snapshot.Buses {
		rx += bus.RxBytesPerSec
		tx += bus.TxBytesPerSec
	}
	r.logger.Info().
		Uint64(loggers.FieldSequence, snapshot.Sequence).
		Int("buses", len(snapshot.Buses)).
		Int("devices", len(snapshot.Devices)).
		Float64("rx_bytes_per_sec", rx).
		Float64("tx_bytes_per_sec", tx).
		Msg("tick")

	for _, stats := range snapshot.Devices {
		r.logger.Debug().
			Str(loggers.FieldDeviceKey, stats.Key.String()).
			Float64("rx_bytes_per_sec", stats.RxBytesPerSec).
			Float64("tx_bytes_per_sec", stats.TxBytesPerSec).
			Float64("utilization", stats.Utilization).
			Bool("stale", stats.Stale).
			Msg("device")
	}

	for _, condition := range snapshot.Conditions {
		event := r.logger.Warn()
		if condition.Severity == models.SeverityFatal {
			event = r.logger.Error()
		}
		event.
			Uint16(loggers.FieldBusID, condition.Bus).
			Str(loggers.FieldErrorKind, string(condition.Kind)).
			Str(loggers.FieldErrorCode, condition.Code).
			Msg(condition.Message)
	}

	if r.inventory != nil {
		r.diffInventory()
	}
	return nil
}

func (r *logRenderer) diffInventory() {
	current := make(map[models.DeviceKey]models.DeviceInfo)
	for _, info := range r.inventory.Devices() {
		current[info.Key] = info
		if _, seen := r.known[info.Key]; !seen {
			r.logger.Info().
				Str(loggers.FieldDeviceKey, info.Key.String()).
				Str("speed", string(info.Speed)).
				Str("name", info.DisplayName()).
				Msg("device attached")
		}
	}
	for key, info := range r.known {
		if _, ok := current[key]; !ok {
			r.logger.Info().
				Str(loggers.FieldDeviceKey, key.String()).
				Str("name", info.DisplayName()).
				Msg("device detached")
		}
	}
	r.known = current
}
