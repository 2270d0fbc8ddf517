package editor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-widget/internal/config"
	"github.com/joeblew999/geo-widget/internal/logging"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/storage"
	"github.com/joeblew999/geo-widget/internal/templates"
)

type fixture struct {
	mux     *http.ServeMux
	widgets *service.WidgetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	widgets := service.NewWidgetService(service.WidgetConfig{
		Catalogue: config.Default(),
		Durable:   storage.NewMemory(),
		Session:   storage.NewMemory(),
		Logger:    logging.Discard(),
	})
	t.Cleanup(widgets.Close)

	renderer, err := templates.Embedded()
	require.NoError(t, err)

	mux := http.NewServeMux()
	cfg := huma.DefaultConfig("editor test", "0.0.0")
	cfg.CreateHooks = nil
	NewWidgetHandler(widgets, renderer, logging.Discard()).RegisterRoutes(humago.New(mux, cfg))
	return &fixture{mux: mux, widgets: widgets}
}

func (f *fixture) post(t *testing.T, path, signals string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(signals))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Body.String()
}

func TestTextSignal(t *testing.T) {
	f := newFixture(t)
	inst, err := f.widgets.Create(context.Background(), "location", "c", "s", "")
	require.NoError(t, err)

	body := f.post(t, basePath+"/"+inst.ID+"/text", `{"wkt":"SRID=4326;POINT(1 2)"}`)
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"wkt":"SRID=4326;POINT(1 2)"`)
	assert.Contains(t, body, `"lon":"1"`)
	assert.Contains(t, body, "#toolbar-"+inst.ID)
	assert.Contains(t, body, `"success":"Geometry updated"`)
	assert.Equal(t, "SRID=4326;POINT(1 2)", inst.Widget.Snapshot().Text)

	body = f.post(t, basePath+"/"+inst.ID+"/text", `{"wkt":"POINT(1"}`)
	assert.NotContains(t, body, `"error":""`)
	assert.Len(t, inst.Widget.Features(), 1)
}

func TestCoordinateSignals(t *testing.T) {
	f := newFixture(t)
	inst, err := f.widgets.Create(context.Background(), "location", "c", "s", "")
	require.NoError(t, err)

	body := f.post(t, basePath+"/"+inst.ID+"/coordinates", `{"lon":12.5,"lat":"41.9"}`)
	assert.Contains(t, body, `"wkt":"SRID=4326;POINT(12.5 41.9)"`)
	assert.Contains(t, body, `"syncpending":true`)
}

func TestTextVisibilitySignal(t *testing.T) {
	f := newFixture(t)
	inst, err := f.widgets.Create(context.Background(), "route", "c", "s", "")
	require.NoError(t, err)
	path := basePath + "/" + inst.ID + "/text/visibility"

	body := f.post(t, path, `{"textvisible":true}`)
	assert.Contains(t, body, `"textvisible":true`)

	f.post(t, path, `{"textvisible":true}`)
	assert.True(t, inst.Widget.Snapshot().TextVisible, "setting the same value keeps it")

	body = f.post(t, path, "")
	assert.Contains(t, body, `"textvisible":false`)
}

func TestToolbarTools(t *testing.T) {
	f := newFixture(t)
	inst, err := f.widgets.Create(context.Background(), "geometry", "c", "s", "SRID=4326;POINT(1 2)")
	require.NoError(t, err)
	base := basePath + "/" + inst.ID

	body := f.post(t, base+"/tool/draw-linestring", "")
	assert.Contains(t, body, `"mode":"drawing(LineString)"`)

	body = f.post(t, base+"/tool/baselayer", "")
	assert.Contains(t, body, `"panelopen":true`)
	assert.Contains(t, body, "osm_id_geometry")
	assert.Contains(t, body, `"mode":"idle"`)

	body = f.post(t, base+"/baselayer/opentopomap_id_geometry", "")
	assert.Contains(t, body, `"activelayer":"opentopomap_id_geometry"`)

	f.post(t, base+"/tool/delete", "")
	assert.Empty(t, inst.Widget.Features())
	assert.Empty(t, inst.Widget.Snapshot().Text)
}

func TestToolRejectedForKind(t *testing.T) {
	f := newFixture(t)
	inst, err := f.widgets.Create(context.Background(), "area", "c", "s", "")
	require.NoError(t, err)

	body := f.post(t, basePath+"/"+inst.ID+"/tool/draw-point", "")
	assert.Contains(t, body, `"error":"`)
	assert.NotContains(t, body, `"error":""`)
	assert.Contains(t, body, `"mode":"idle"`)
}

func TestUnknownInstance(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, basePath+"/nope/tool/modify", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
