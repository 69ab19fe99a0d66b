package renderers

import (
	"context"
	"errors"

	"usbtop/internal/models"
	"usbtop/internal/orchestrators"
)

type multiRenderer []orchestrators.Renderer

// NewMultiRenderer fans every snapshot out to renderers in order. A failing renderer does
// not stop the others; their errors are joined.
func NewMultiRenderer(renderers ...orchestrators.Renderer) orchestrators.Renderer {
	return multiRenderer(renderers)
}

func (m multiRenderer) Render(ctx context.Context, snapshot *models.TickSnapshot) error {
	var errs []error
	for _, renderer := range m {
		if err := renderer.Render(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
