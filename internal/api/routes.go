// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-widget/internal/config"
	"github.com/joeblew999/geo-widget/internal/service"
)

// Version is reported by the health and info endpoints.
const Version = "0.1.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Widgets *service.WidgetService
	Tiles   *service.TileService
}

// Cookies identifying the browser. The client cookie outlives the browser
// session and partitions durable state; the session cookie partitions
// session state.
const (
	ClientCookie  = "geo_client"
	SessionCookie = "geo_session"
)

// Types

type IDInput struct {
	ID string `path:"id" doc:"Widget instance ID" example:"3f0c2a9e-6d1b-4b8e-9a57-1f2d3c4b5a69"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterDefinitions registers the widget catalogue route.
func (h *APIHandler) RegisterDefinitions(api huma.API) {
	huma.Get(api, "/api/v1/definitions", h.GetDefinitions, huma.OperationTags("definitions"))
}

// RegisterTiles registers local tile listing routes.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("tiles"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetDefinitions(ctx context.Context, input *struct{}) (*struct{ Body []config.Definition }, error) {
	return &struct{ Body []config.Definition }{Body: h.svc.Widgets.Definitions()}, nil
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []service.TileFile }, error) {
	if h.svc.Tiles == nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	tiles, err := h.svc.Tiles.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("listing tiles", err)
	}
	return &struct{ Body []service.TileFile }{Body: tiles}, nil
}
