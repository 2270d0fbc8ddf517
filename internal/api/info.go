package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir string
	durable string
	session string
}

// NewInfoHandler describes the running service. durable and session name the
// storage backends in use.
func NewInfoHandler(dataDir, durable, session string) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, durable: durable, session: session}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	Durable  string   `json:"durable_store" doc:"Backend holding base-layer choices" example:"duckdb"`
	Session  string   `json:"session_store" doc:"Backend holding zoom levels" example:"redis"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "geo-widget",
		Version:  Version,
		DataDir:  h.dataDir,
		Durable:  h.durable,
		Session:  h.session,
		Features: []string{"ewkt", "geojson", "pmtiles", "datastar"},
	}}, nil
}
