package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-widget/internal/api"
	"github.com/joeblew999/geo-widget/internal/humastar"
)

// Events streams a widget's state to the Datastar page: the full state on
// connect, then a fresh patch after every change until the widget is removed
// or the client goes away.
func (h *WidgetHandler) Events(ctx context.Context, input *api.IDInput) (*huma.StreamResponse, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		bus := h.widgets.Bus()
		ch := bus.Subscribe(inst.ID)
		defer bus.Unsubscribe(ch)

		h.patchState(sse, inst)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Action == "deleted" {
					sse.DispatchCustomEvent("widget-removed", map[string]any{"id": ev.ID})
					return
				}
				h.patchState(sse, inst)
				sse.DispatchCustomEvent("widget-changed", map[string]any{
					"id":     ev.ID,
					"action": ev.Action,
				})
			}
		}
	}), nil
}
