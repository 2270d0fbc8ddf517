package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-widget/internal/config"
	"github.com/joeblew999/geo-widget/internal/logging"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/storage"
)

func newTestAPI(t *testing.T) humatest.TestAPI {
	t.Helper()
	widgets := service.NewWidgetService(service.WidgetConfig{
		Catalogue: config.Default(),
		Durable:   storage.NewMemory(),
		Session:   storage.NewMemory(),
		Logger:    logging.Discard(),
	})
	t.Cleanup(widgets.Close)

	cfg := huma.DefaultConfig("geo-widget test", Version)
	cfg.CreateHooks = nil
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	_, api := humatest.New(t, cfg)
	RegisterRoutes(api, &Services{Widgets: widgets, Tiles: service.NewTileService(t.TempDir(), "/tiles")})
	return api
}

func decodeWidget(t *testing.T, body []byte) WidgetBody {
	t.Helper()
	var w WidgetBody
	require.NoError(t, json.Unmarshal(body, &w))
	return w
}

func createWidget(t *testing.T, api humatest.TestAPI, definition, text string) WidgetBody {
	t.Helper()
	resp := api.Post("/api/v1/widgets", "Cookie: geo_client=c1; geo_session=s1", map[string]any{
		"definition":  definition,
		"initialText": text,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeWidget(t, resp.Body.Bytes())
}

func TestHealthLinks(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/widgets>; rel="widgets"`)
}

func TestDefinitions(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/api/v1/definitions")
	require.Equal(t, http.StatusOK, resp.Code)

	var defs []config.Definition
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &defs))
	require.NotEmpty(t, defs)
	assert.Equal(t, "area", defs[0].Name)
}

func TestWidgetLifecycle(t *testing.T) {
	api := newTestAPI(t)
	w := createWidget(t, api, "location", "SRID=4326;POINT(36.8219 -1.2921)")

	assert.Equal(t, "SRID=4326;POINT(36.8219 -1.2921)", w.Text)
	assert.Equal(t, "36.8219", w.Lon)
	assert.Equal(t, "id_location", w.WidgetID)
	assert.Equal(t, "20/", w.CenterTile[:3])

	path := "/api/v1/widgets/" + w.InstanceID
	resp := api.Get(path)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Values("Link"), `<`+path+`>; rel="self"`)
	assert.Contains(t, resp.Header().Values("Link"), `<`+path+`/coordinates>; rel="coordinates"; method="POST"; title="Set coordinates"`)

	assert.False(t, w.TextVisible)
	resp = api.Post(path + "/text/visibility")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decodeWidget(t, resp.Body.Bytes()).TextVisible)

	resp = api.Delete(path)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, http.StatusNotFound, api.Get(path).Code)
}

func TestCreateUnknownDefinition(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Post("/api/v1/widgets", map[string]any{"definition": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDrawAndModify(t *testing.T) {
	api := newTestAPI(t)
	w := createWidget(t, api, "area", "")
	path := "/api/v1/widgets/" + w.InstanceID

	square := map[string]any{
		"type":        "Polygon",
		"coordinates": [][][]float64{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
	}

	resp := api.Post(path+"/features", map[string]any{"geometry": square})
	assert.Equal(t, http.StatusConflict, resp.Code, "no draw tool active")

	resp = api.Post(path+"/interaction", map[string]any{"mode": "draw", "kind": "Point"})
	assert.Equal(t, http.StatusConflict, resp.Code, "area widgets cannot draw points")

	resp = api.Post(path+"/interaction", map[string]any{"mode": "draw", "kind": "Polygon"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "drawing", string(decodeWidget(t, resp.Body.Bytes()).Mode.State))

	resp = api.Post(path+"/features", map[string]any{"geometry": square})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created struct {
		FeatureID uint64     `json:"featureId"`
		Widget    WidgetBody `json:"widget"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "SRID=4326;POLYGON((0 0,1 0,1 1,0 1,0 0))", created.Widget.Text)
	assert.NotEmpty(t, resp.Header().Get("Location"))

	resp = api.Post(path+"/interaction", map[string]any{"mode": "modify"})
	require.Equal(t, http.StatusOK, resp.Code)

	bigger := map[string]any{
		"type":        "Polygon",
		"coordinates": [][][]float64{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}},
	}
	resp = api.Put(path+"/features/"+jsonNumber(created.FeatureID), map[string]any{"geometry": bigger})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "SRID=4326;POLYGON((0 0,2 0,2 2,0 2,0 0))", decodeWidget(t, resp.Body.Bytes()).Text)

	resp = api.Put(path+"/features/999", map[string]any{"geometry": bigger})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func jsonNumber(n uint64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestTextErrorsKeepState(t *testing.T) {
	api := newTestAPI(t)
	w := createWidget(t, api, "route", "SRID=4326;LINESTRING(0 0,1 1)")
	path := "/api/v1/widgets/" + w.InstanceID

	resp := api.Put(path+"/text", map[string]any{"text": "SRID=4326;LINESTRING(0 0,"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	got := decodeWidget(t, api.Get(path).Body.Bytes())
	assert.Equal(t, "SRID=4326;LINESTRING(0 0,", got.Text, "the field keeps what was typed")
	assert.Len(t, got.Features.Features, 1)
}

func TestClearRequiresConfirmation(t *testing.T) {
	api := newTestAPI(t)
	w := createWidget(t, api, "location", "SRID=4326;POINT(1 2)")
	path := "/api/v1/widgets/" + w.InstanceID

	var out struct {
		Cleared bool       `json:"cleared"`
		Prompt  string     `json:"prompt"`
		Widget  WidgetBody `json:"widget"`
	}
	resp := api.Post(path+"/clear", map[string]any{"confirm": false})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.False(t, out.Cleared)
	assert.Equal(t, "Want to clear all features?", out.Prompt)
	assert.Equal(t, "SRID=4326;POINT(1 2)", out.Widget.Text)

	resp = api.Post(path+"/clear", map[string]any{"confirm": true})
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.True(t, out.Cleared)
	assert.Empty(t, out.Widget.Text)
	assert.Empty(t, out.Widget.Lon)
}

func TestCoordinatesEndpoint(t *testing.T) {
	api := newTestAPI(t)
	point := createWidget(t, api, "location", "")
	area := createWidget(t, api, "area", "")

	resp := api.Post("/api/v1/widgets/"+point.InstanceID+"/coordinates", map[string]any{"lon": "12.5", "lat": "41.9"})
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeWidget(t, resp.Body.Bytes())
	assert.Equal(t, "SRID=4326;POINT(12.5 41.9)", got.Text)
	assert.True(t, got.SyncPending)

	resp = api.Post("/api/v1/widgets/"+point.InstanceID+"/coordinates", map[string]any{"lon": "x", "lat": "41.9"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Post("/api/v1/widgets/"+area.InstanceID+"/coordinates", map[string]any{"lon": "1", "lat": "2"})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestBaseLayerAndView(t *testing.T) {
	api := newTestAPI(t)
	w := createWidget(t, api, "area", "")
	path := "/api/v1/widgets/" + w.InstanceID

	resp := api.Post(path + "/baselayer/panel")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decodeWidget(t, resp.Body.Bytes()).PanelOpen)

	resp = api.Put(path+"/baselayer", map[string]any{"layer": "opentopomap_id_area"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "opentopomap_id_area", decodeWidget(t, resp.Body.Bytes()).ActiveLayer)

	resp = api.Put(path+"/baselayer", map[string]any{"layer": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = api.Post(path+"/view", map[string]any{"zoom": 6, "center": []float64{10, 20}})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(6), decodeWidget(t, resp.Body.Bytes()).Zoom)

	// Same browser, new widget: base layer and zoom come back.
	again := createWidget(t, api, "area", "")
	assert.Equal(t, "opentopomap_id_area", again.ActiveLayer)
	assert.Equal(t, float64(6), again.Zoom)
}

func TestCenterTileClampsZoom(t *testing.T) {
	assert.Equal(t, "0/0/0", centerTile(orb.Point{0, 0}, -3))
	assert.Equal(t, "1/1/0", centerTile(orb.Point{10, 10}, 1.7))
	assert.Equal(t, "30/", centerTile(orb.Point{0, 0}, 45)[:3])
}
