// Package editor contains Datastar SSE handlers driving widget pages.
package editor

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/geo-widget/internal/api"
	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/humastar"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/templates"
	"github.com/joeblew999/geo-widget/internal/widget"
)

const basePath = "/api/v1/editor/widgets"

// WidgetHandler serves the signal-driven editor endpoints of widget pages.
type WidgetHandler struct {
	humastar.Handler
	widgets *service.WidgetService
	log     *slog.Logger
}

func NewWidgetHandler(widgets *service.WidgetService, renderer *templates.Renderer, log *slog.Logger) *WidgetHandler {
	return &WidgetHandler{
		Handler: humastar.Handler{Renderer: renderer},
		widgets: widgets,
		log:     log.With("component", "editor"),
	}
}

func (h *WidgetHandler) RegisterRoutes(a huma.API) {
	tags := huma.OperationTags("editor")
	huma.Get(a, basePath+"/{id}/events", h.Events, tags)
	huma.Post(a, basePath+"/{id}/text", h.Text, tags)
	huma.Post(a, basePath+"/{id}/text/visibility", h.TextVisibility, tags)
	huma.Post(a, basePath+"/{id}/coordinates", h.Coordinates, tags)
	huma.Post(a, basePath+"/{id}/tool/{action}", h.Tool, tags)
	huma.Post(a, basePath+"/{id}/baselayer/{layer}", h.BaseLayer, tags)
	huma.Post(a, basePath+"/{id}/view", h.View, tags)
}

type SignalsIDInput struct {
	api.IDInput
	humastar.SignalsInput
}

type ToolInput struct {
	api.IDInput
	Action string `path:"action" doc:"Toolbar action" enum:"draw-polygon,draw-linestring,draw-point,modify,delete,baselayer"`
}

type BaseLayerInput struct {
	api.IDInput
	Layer string `path:"layer" doc:"Base-layer candidate ID"`
}

func (h *WidgetHandler) instance(id string) (*service.Instance, error) {
	inst, err := h.widgets.Get(id)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return inst, nil
}

type toolbarData struct {
	InstanceID string
	Base       string
	Buttons    []widget.ToolbarButton
}

type panelData struct {
	InstanceID string
	Base       string
	Open       bool
	Layers     []widget.BaseLayer
}

// stateSignals are the Datastar signals mirrored from widget state. Names
// are lowercase to match data-bind.
func stateSignals(s widget.State) map[string]any {
	return map[string]any{
		"wkt":         s.Text,
		"lon":         s.Lon,
		"lat":         s.Lat,
		"zoom":        s.Zoom,
		"centerlon":   s.Center[0],
		"centerlat":   s.Center[1],
		"activelayer": s.ActiveLayer,
		"mode":        s.Mode.String(),
		"textvisible": s.TextVisible,
		"panelopen":   s.PanelOpen,
		"syncpending": s.SyncPending,
		"features":    s.Features,
	}
}

func (h *WidgetHandler) patchState(sse humastar.SSE, inst *service.Instance) {
	s := inst.Widget.Snapshot()
	base := basePath + "/" + inst.ID

	if err := sse.Signals(stateSignals(s)); err != nil {
		h.log.Debug("patching signals", "instance", inst.ID, "error", err)
		return
	}
	if html, err := h.Render("toolbar", toolbarData{InstanceID: inst.ID, Base: base, Buttons: s.Toolbar}); err == nil {
		sse.Replace(html, "#toolbar-"+inst.ID)
	} else {
		h.log.Error("rendering toolbar", "error", err)
	}
	if html, err := h.Render("baselayer-panel", panelData{InstanceID: inst.ID, Base: base, Open: s.PanelOpen, Layers: s.BaseLayers}); err == nil {
		sse.Replace(html, "#baselayers-"+inst.ID)
	} else {
		h.log.Error("rendering base layers", "error", err)
	}
}

// respond streams the outcome of an action: done as the success message, or
// the error when it failed, then the (possibly unchanged) state.
func (h *WidgetHandler) respond(inst *service.Instance, done string, actionErr error) *huma.StreamResponse {
	return h.Stream(func(sse humastar.SSE) {
		if actionErr != nil {
			sse.Error(actionErr.Error())
		} else {
			sse.Success(done)
		}
		h.patchState(sse, inst)
	})
}

// Text applies an edit of the WKT text area (signal "wkt").
func (h *WidgetHandler) Text(ctx context.Context, input *SignalsIDInput) (*huma.StreamResponse, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.respond(inst, "Geometry updated", inst.Widget.SetText(signals.String("wkt"))), nil
}

// TextVisibility shows or hides the WKT text area. The "textvisible" signal
// sets the visibility; without it the current visibility is flipped.
func (h *WidgetHandler) TextVisibility(ctx context.Context, input *SignalsIDInput) (*huma.StreamResponse, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	if signals.Has("textvisible") {
		inst.Widget.SetTextVisible(signals.Bool("textvisible"))
	} else {
		inst.Widget.ToggleTextVisible()
	}
	return h.respond(inst, "", nil), nil
}

// Coordinates applies an edit of the longitude/latitude inputs (signals
// "lon" and "lat").
func (h *WidgetHandler) Coordinates(ctx context.Context, input *SignalsIDInput) (*huma.StreamResponse, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.respond(inst, "Coordinates updated", inst.Widget.CoordinateInput(signals.String("lon"), signals.String("lat"))), nil
}

// Tool handles a toolbar click. The delete button asks for confirmation in
// the browser before posting.
func (h *WidgetHandler) Tool(ctx context.Context, input *ToolInput) (*huma.StreamResponse, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	w := inst.Widget
	var actionErr error
	switch input.Action {
	case widget.ActionDrawPolygon:
		actionErr = w.ActivateDraw(geom.KindPolygon)
	case widget.ActionDrawLineString:
		actionErr = w.ActivateDraw(geom.KindLineString)
	case widget.ActionDrawPoint:
		actionErr = w.ActivateDraw(geom.KindPoint)
	case widget.ActionModify:
		actionErr = w.ActivateModify()
	case widget.ActionDelete:
		w.Delete(widget.ConfirmFunc(func(string) bool { return true }))
	case widget.ActionBaseLayer:
		w.ToggleLayerPanel()
	default:
		return nil, huma.Error404NotFound("unknown toolbar action " + input.Action)
	}
	return h.respond(inst, "", actionErr), nil
}

// BaseLayer selects a base layer from the panel.
func (h *WidgetHandler) BaseLayer(ctx context.Context, input *BaseLayerInput) (*huma.StreamResponse, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	return h.respond(inst, "Base layer changed", inst.Widget.SelectLayer(ctx, input.Layer)), nil
}

// View records the map view after a pan or zoom (signals "zoom",
// "centerlon", "centerlat").
func (h *WidgetHandler) View(ctx context.Context, input *SignalsIDInput) (*huma.StreamResponse, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	center := orb.Point{signals.Float("centerlon"), signals.Float("centerlat")}
	return h.respond(inst, "", inst.Widget.MoveEnd(ctx, signals.Float("zoom"), center)), nil
}
