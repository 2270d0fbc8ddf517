package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/widget"
)

// toHumaError maps domain errors onto HTTP statuses. Rejected input leaves
// the widget unchanged, so 422 responses never imply partial updates.
func toHumaError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, geom.ErrParse),
		errors.Is(err, widget.ErrValidation),
		errors.Is(err, widget.ErrGeometryMismatch):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrWidgetNotFound),
		errors.Is(err, service.ErrUnknownDefinition),
		errors.Is(err, widget.ErrUnknownLayer),
		errors.Is(err, widget.ErrUnknownFeature):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, widget.ErrKindNotAllowed),
		errors.Is(err, widget.ErrNoDrawInteraction),
		errors.Is(err, widget.ErrNotModifying),
		errors.Is(err, widget.ErrNotPointWidget),
		errors.Is(err, widget.ErrClosed):
		return huma.Error409Conflict(err.Error())
	}
	return huma.Error500InternalServerError("internal error", err)
}
