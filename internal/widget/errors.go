package widget

import "errors"

var (
	// ErrValidation marks coordinate input that is empty or non-numeric.
	ErrValidation = errors.New("invalid coordinates")

	ErrNotPointWidget    = errors.New("coordinate fields apply to point widgets only")
	ErrKindNotAllowed    = errors.New("geometry kind not allowed for this widget")
	ErrGeometryMismatch  = errors.New("geometry does not match the active interaction")
	ErrNoDrawInteraction = errors.New("no draw interaction is active")
	ErrNotModifying      = errors.New("modify interaction is not active")
	ErrUnknownFeature    = errors.New("unknown feature")
	ErrUnknownLayer      = errors.New("unknown base layer")
	ErrClosed            = errors.New("widget is closed")
)
