package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"usbtop/internal/models"
	"usbtop/internal/orchestrators"
	"usbtop/internal/shared/svcerrors"

	"github.com/go-chi/chi/v5"
)

type AppHttpHandler interface {
	Handle(w http.ResponseWriter, r *http.Request) error
}

// HealthResponse reports the orchestrator lifecycle state.
type HealthResponse struct {
	State string `json:"state"`
}

type healthHandler struct {
	stats StatsService
}

func NewHealthHandler(stats StatsService) AppHttpHandler {
	return &healthHandler{stats: stats}
}

// Handle processes GET /healthz requests. Anything but a running orchestrator is 503.
func (h *healthHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	state := h.stats.State()
	status := http.StatusOK
	if state != orchestrators.StateRunning {
		status = http.StatusServiceUnavailable
	}
	return writeJSON(w, status, HealthResponse{State: state.String()})
}

type snapshotHandler struct {
	stats StatsService
}

func NewSnapshotHandler(stats StatsService) AppHttpHandler {
	return &snapshotHandler{stats: stats}
}

// Handle processes GET /api/v1/snapshot requests.
func (h *snapshotHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	snapshot := h.stats.Latest()
	if snapshot == nil {
		return errNoSnapshot()
	}
	return writeJSON(w, http.StatusOK, snapshot)
}

type deviceStatsHandler struct {
	stats StatsService
}

func NewDeviceStatsHandler(stats StatsService) AppHttpHandler {
	return &deviceStatsHandler{stats: stats}
}

// Handle processes GET /api/v1/devices/{bus}/{address} requests.
func (h *deviceStatsHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	key, err := deviceKeyParam(r)
	if err != nil {
		return err
	}
	stats, ok := h.stats.Snapshot(key)
	if !ok {
		return errUnknownDevice(key, nil)
	}
	return writeJSON(w, http.StatusOK, stats)
}

type evictDeviceHandler struct {
	stats StatsService
}

func NewEvictDeviceHandler(stats StatsService) AppHttpHandler {
	return &evictDeviceHandler{stats: stats}
}

// Handle processes DELETE /api/v1/devices/{bus}/{address} requests.
func (h *evictDeviceHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	key, err := deviceKeyParam(r)
	if err != nil {
		return err
	}
	if err := h.stats.Evict(r.Context(), key); err != nil {
		return mapCommandError(key, err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type resetPeakHandler struct {
	stats StatsService
}

func NewResetPeakHandler(stats StatsService) AppHttpHandler {
	return &resetPeakHandler{stats: stats}
}

// Handle processes POST /api/v1/devices/{bus}/{address}/peak/reset requests.
func (h *resetPeakHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	key, err := deviceKeyParam(r)
	if err != nil {
		return err
	}
	if err := h.stats.ResetPeak(r.Context(), key); err != nil {
		return mapCommandError(key, err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// deviceKeyParam reads {bus} and {address}. Bus numbers start at 1; address 0 selects the
// bus aggregate.
func deviceKeyParam(r *http.Request) (models.DeviceKey, error) {
	busParam := chi.URLParam(r, "bus")
	bus, err := strconv.ParseUint(busParam, 10, 16)
	if err != nil || bus == 0 {
		return models.DeviceKey{}, errInvalidDeviceKey("bus", busParam, err)
	}
	addressParam := chi.URLParam(r, "address")
	address, err := strconv.ParseUint(addressParam, 10, 8)
	if err != nil || address > 127 {
		return models.DeviceKey{}, errInvalidDeviceKey("address", addressParam, err)
	}
	return models.DeviceKey{Bus: uint16(bus), Address: uint8(address)}, nil
}

func mapCommandError(key models.DeviceKey, err error) error {
	if svcErr, ok := svcerrors.AsServiceError(err); ok && svcErr.IsNotFound() {
		return errUnknownDevice(key, err)
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set(headerContentType, "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
