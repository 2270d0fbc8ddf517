// Package humastar lets Huma operations answer with Datastar server-sent
// events.
//
// Editor handlers embed [Handler], stream through [SSE], read the page's
// signals with [SignalsInput], and advertise follow-up requests as Link
// headers through [Actor].
package humastar

import (
	"encoding/json"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/geo-widget/internal/templates"
)

// Handler is embedded by editor handlers.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream answers an operation with an event stream written by fn.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			fn(NewSSE(ctx))
		},
	}
}

// Render executes the named fragment template.
func (h *Handler) Render(name string, data any) (string, error) {
	return h.Renderer.Render(name, data)
}

// SSE writes Datastar events to one streaming response.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE starts an event stream on the request behind ctx.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Replace swaps the element matching selector for html.
func (s SSE) Replace(html, selector string) error {
	return s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeOuter(),
	)
}

// Error reports a failed action through the error and success signals.
func (s SSE) Error(msg string) error {
	return s.MarshalAndPatchSignals(map[string]any{"error": msg, "success": ""})
}

// Success reports a completed action and clears any earlier error.
func (s SSE) Success(msg string) error {
	return s.MarshalAndPatchSignals(map[string]any{"success": msg, "error": ""})
}

// Signals patches the given signals.
func (s SSE) Signals(signals map[string]any) error {
	return s.MarshalAndPatchSignals(signals)
}

// Signals is the flat JSON object Datastar posts with every action.
type Signals map[string]any

// ParseSignals decodes a posted signal object. An empty body has no signals.
func ParseSignals(body []byte) (Signals, error) {
	if len(body) == 0 {
		return Signals{}, nil
	}
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns the signal as text. A bound number input may post either a
// string or a number, so numbers are formatted without loss.
func (s Signals) String(key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Float returns the signal as a number; unparsable or missing values are 0.
func (s Signals) Float(key string) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Bool returns the signal as a boolean; missing values are false.
func (s Signals) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// Has reports whether the signal was posted at all.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// SignalsInput takes the raw request body of a Datastar action.
type SignalsInput struct {
	RawBody []byte
}

// MustParse decodes the body, answering 400 when it is not a signal object.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
