package http

import (
	"context"

	"usbtop/internal/models"
	"usbtop/internal/orchestrators"
)

// StatsService is the part of the orchestrator the status endpoint reads and commands.
//
//go:generate mockgen -source=stats_service.go -destination=./mocks/stats_service_mock.go -package=mocks
type StatsService interface {
	State() orchestrators.State
	Latest() *models.TickSnapshot
	Snapshot(key models.DeviceKey) (models.BandwidthStats, bool)
	Evict(ctx context.Context, key models.DeviceKey) error
	ResetPeak(ctx context.Context, key models.DeviceKey) error
}
