package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/humastar"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/widget"
)

const widgetsPath = "/api/v1/widgets"

// maxTileZoom bounds the tile zoom reported for the view centre.
const maxTileZoom = 30

// WidgetBody is the state document of one widget instance.
type WidgetBody struct {
	InstanceID string `json:"instanceId" doc:"Widget instance ID"`
	Definition string `json:"definition" doc:"Catalogue definition the widget was built from"`
	CenterTile string `json:"centerTile" doc:"z/x/y of the web-mercator tile under the view centre" example:"12/2453/1563"`
	widget.State
}

func newWidgetBody(inst *service.Instance) WidgetBody {
	s := inst.Widget.Snapshot()
	return WidgetBody{
		InstanceID: inst.ID,
		Definition: inst.Definition,
		CenterTile: centerTile(s.Center, s.Zoom),
		State:      s,
	}
}

// centerTile names the tile under center, with zoom clamped to the tile
// pyramid.
func centerTile(center orb.Point, zoom float64) string {
	z := maptile.Zoom(math.Max(0, math.Min(maxTileZoom, math.Floor(zoom))))
	t := maptile.At(center, z)
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Actions advertises the toolbar actions available in the current state.
func (b WidgetBody) Actions() []humastar.Action {
	base := widgetsPath + "/" + b.InstanceID
	var out []humastar.Action
	for _, btn := range b.Toolbar {
		a := humastar.Action{Rel: btn.Action, Method: http.MethodPost, Title: btn.Title, Active: btn.Active}
		switch btn.Action {
		case widget.ActionDelete:
			a.Href = base + "/clear"
		case widget.ActionBaseLayer:
			a.Href = base + "/baselayer/panel"
		default:
			a.Href = base + "/interaction"
		}
		out = append(out, a)
	}
	out = append(out, humastar.Action{Rel: "edit-text", Href: base + "/text", Method: http.MethodPut, Title: "Edit WKT"})
	if b.Kind == geom.KindPoint {
		out = append(out, humastar.Action{Rel: "coordinates", Href: base + "/coordinates", Method: http.MethodPost, Title: "Set coordinates"})
	}
	return out
}

type WidgetOutput struct {
	Body WidgetBody
}

// WidgetSummary is one entry of the instance listing.
type WidgetSummary struct {
	InstanceID string    `json:"instanceId"`
	Definition string    `json:"definition"`
	WidgetID   string    `json:"widgetId"`
	Kind       geom.Kind `json:"kind"`
}

type CreateWidgetInput struct {
	ClientID  string `cookie:"geo_client" doc:"Durable browser id"`
	SessionID string `cookie:"geo_session" doc:"Browsing session id"`
	Body      struct {
		Definition  string `json:"definition" doc:"Catalogue definition name" example:"location"`
		InitialText string `json:"initialText,omitempty" doc:"Persisted SRID-prefixed WKT value of the form field" example:"SRID=4326;POINT(36.8219 -1.2921)"`
	}
}

type TextInput struct {
	IDInput
	Body struct {
		Text string `json:"text" doc:"SRID-prefixed WKT" example:"SRID=4326;POLYGON((0 0,1 0,1 1,0 0))"`
	}
}

type InteractionInput struct {
	IDInput
	Body struct {
		Mode string    `json:"mode" enum:"draw,modify,none" doc:"Interaction to activate"`
		Kind geom.Kind `json:"kind,omitempty" doc:"Geometry kind drawn, for mode=draw" example:"Polygon"`
	}
}

type FeatureInput struct {
	IDInput
	Body struct {
		Geometry map[string]any `json:"geometry" doc:"GeoJSON geometry"`
	}
}

type FeatureIDInput struct {
	IDInput
	FeatureID uint64 `path:"fid" doc:"Feature ID"`
	Body      struct {
		Geometry map[string]any `json:"geometry" doc:"GeoJSON geometry"`
	}
}

type FeatureCreatedOutput struct {
	Location string `header:"Location"`
	Body     struct {
		FeatureID uint64     `json:"featureId"`
		Widget    WidgetBody `json:"widget"`
	}
}

type ClearInput struct {
	IDInput
	Body struct {
		Confirm bool `json:"confirm" doc:"The user accepted the clear prompt"`
	}
}

type ClearOutput struct {
	Body struct {
		Cleared bool       `json:"cleared"`
		Prompt  string     `json:"prompt"`
		Widget  WidgetBody `json:"widget"`
	}
}

type CoordinatesInput struct {
	IDInput
	Body struct {
		Lon string `json:"lon" doc:"Longitude as typed" example:"36.8219"`
		Lat string `json:"lat" doc:"Latitude as typed" example:"-1.2921"`
	}
}

type BaseLayerInput struct {
	IDInput
	Body struct {
		Layer string `json:"layer" doc:"Base-layer candidate ID" example:"osm_id_location"`
	}
}

type ViewInput struct {
	IDInput
	Body struct {
		Zoom   float64    `json:"zoom" doc:"Zoom after the move"`
		Center [2]float64 `json:"center" doc:"Lon/lat centre after the move"`
	}
}

// RegisterWidgets registers widget lifecycle and interaction routes.
func (h *APIHandler) RegisterWidgets(api huma.API) {
	tags := huma.OperationTags("widgets")
	created := func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated }

	huma.Get(api, widgetsPath, h.ListWidgets, tags)
	huma.Post(api, widgetsPath, h.CreateWidget, tags, created)
	huma.Get(api, widgetsPath+"/{id}", h.GetWidget, tags)
	huma.Delete(api, widgetsPath+"/{id}", h.DeleteWidget, tags)
	huma.Put(api, widgetsPath+"/{id}/text", h.PutText, tags)
	huma.Post(api, widgetsPath+"/{id}/text/visibility", h.ToggleText, tags)
	huma.Post(api, widgetsPath+"/{id}/interaction", h.PostInteraction, tags)
	huma.Post(api, widgetsPath+"/{id}/features", h.PostFeature, tags, created)
	huma.Put(api, widgetsPath+"/{id}/features/{fid}", h.PutFeature, tags)
	huma.Post(api, widgetsPath+"/{id}/clear", h.PostClear, tags)
	huma.Post(api, widgetsPath+"/{id}/coordinates", h.PostCoordinates, tags)
	huma.Put(api, widgetsPath+"/{id}/baselayer", h.PutBaseLayer, tags)
	huma.Post(api, widgetsPath+"/{id}/baselayer/panel", h.ToggleBaseLayerPanel, tags)
	huma.Post(api, widgetsPath+"/{id}/view", h.PostView, tags)
}

func (h *APIHandler) instance(id string) (*service.Instance, error) {
	inst, err := h.svc.Widgets.Get(id)
	if err != nil {
		return nil, toHumaError(err)
	}
	return inst, nil
}

func (h *APIHandler) state(inst *service.Instance) *WidgetOutput {
	return &WidgetOutput{Body: newWidgetBody(inst)}
}

func (h *APIHandler) ListWidgets(ctx context.Context, input *struct{}) (*struct{ Body []WidgetSummary }, error) {
	out := []WidgetSummary{}
	for _, inst := range h.svc.Widgets.List() {
		cfg := inst.Widget.Config()
		out = append(out, WidgetSummary{
			InstanceID: inst.ID,
			Definition: inst.Definition,
			WidgetID:   cfg.ID,
			Kind:       cfg.Kind,
		})
	}
	return &struct{ Body []WidgetSummary }{Body: out}, nil
}

func (h *APIHandler) CreateWidget(ctx context.Context, input *CreateWidgetInput) (*WidgetOutput, error) {
	inst, err := h.svc.Widgets.Create(ctx, input.Body.Definition, input.ClientID, input.SessionID, input.Body.InitialText)
	if err != nil {
		return nil, toHumaError(err)
	}
	return h.state(inst), nil
}

func (h *APIHandler) GetWidget(ctx context.Context, input *IDInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	return h.state(inst), nil
}

func (h *APIHandler) DeleteWidget(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Widgets.Remove(input.ID); err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Widget removed"}}, nil
}

func (h *APIHandler) PutText(ctx context.Context, input *TextInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	if err := inst.Widget.SetText(input.Body.Text); err != nil {
		return nil, toHumaError(err)
	}
	return h.state(inst), nil
}

func (h *APIHandler) ToggleText(ctx context.Context, input *IDInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	inst.Widget.ToggleTextVisible()
	return h.state(inst), nil
}

func (h *APIHandler) PostInteraction(ctx context.Context, input *InteractionInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	switch input.Body.Mode {
	case "draw":
		k, perr := geom.ParseKind(string(input.Body.Kind))
		if perr != nil {
			return nil, huma.Error422UnprocessableEntity(perr.Error())
		}
		err = inst.Widget.ActivateDraw(k)
	case "modify":
		err = inst.Widget.ActivateModify()
	default:
		inst.Widget.Deactivate()
	}
	if err != nil {
		return nil, toHumaError(err)
	}
	return h.state(inst), nil
}

func decodeGeometry(raw map[string]any) (orb.Geometry, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("geometry: " + err.Error())
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil || g.Geometry() == nil {
		return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("geometry is not valid GeoJSON: %v", err))
	}
	return g.Geometry(), nil
}

func (h *APIHandler) PostFeature(ctx context.Context, input *FeatureInput) (*FeatureCreatedOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	g, err := decodeGeometry(input.Body.Geometry)
	if err != nil {
		return nil, err
	}
	fid, err := inst.Widget.CompleteDraw(g)
	if err != nil {
		return nil, toHumaError(err)
	}
	out := &FeatureCreatedOutput{Location: fmt.Sprintf("%s/%s/features/%d", widgetsPath, inst.ID, fid)}
	out.Body.FeatureID = fid
	out.Body.Widget = newWidgetBody(inst)
	return out, nil
}

func (h *APIHandler) PutFeature(ctx context.Context, input *FeatureIDInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	g, err := decodeGeometry(input.Body.Geometry)
	if err != nil {
		return nil, err
	}
	if err := inst.Widget.ModifyFeature(input.FeatureID, g); err != nil {
		return nil, toHumaError(err)
	}
	return h.state(inst), nil
}

func (h *APIHandler) PostClear(ctx context.Context, input *ClearInput) (*ClearOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	out := &ClearOutput{}
	out.Body.Prompt = widget.DeletePrompt
	out.Body.Cleared = inst.Widget.Delete(widget.ConfirmFunc(func(string) bool { return input.Body.Confirm }))
	out.Body.Widget = newWidgetBody(inst)
	return out, nil
}

func (h *APIHandler) PostCoordinates(ctx context.Context, input *CoordinatesInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	if err := inst.Widget.CoordinateInput(input.Body.Lon, input.Body.Lat); err != nil {
		return nil, toHumaError(err)
	}
	return h.state(inst), nil
}

func (h *APIHandler) PutBaseLayer(ctx context.Context, input *BaseLayerInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	if err := inst.Widget.SelectLayer(ctx, input.Body.Layer); err != nil {
		return nil, toHumaError(err)
	}
	return h.state(inst), nil
}

func (h *APIHandler) ToggleBaseLayerPanel(ctx context.Context, input *IDInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	inst.Widget.ToggleLayerPanel()
	return h.state(inst), nil
}

func (h *APIHandler) PostView(ctx context.Context, input *ViewInput) (*WidgetOutput, error) {
	inst, err := h.instance(input.ID)
	if err != nil {
		return nil, err
	}
	if err := inst.Widget.MoveEnd(ctx, input.Body.Zoom, orb.Point(input.Body.Center)); err != nil {
		return nil, toHumaError(err)
	}
	return h.state(inst), nil
}
