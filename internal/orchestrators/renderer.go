package orchestrators

import (
	"context"

	"usbtop/internal/models"
)

// Renderer receives every published tick snapshot. Render runs on the orchestrator
// goroutine and must not retain or mutate the snapshot's slices.
//
//go:generate mockgen -source=renderer.go -destination=./mocks/renderer_mock.go -package=mocks
type Renderer interface {
	Render(ctx context.Context, snapshot *models.TickSnapshot) error
}
