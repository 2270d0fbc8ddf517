package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/widget"
)

const catalogueYAML = `
map:
  center_lon: 36.8
  center_lat: -1.3
  default_zoom: 10
tile_layers:
  - title: Satellite
    url: https://tiles.example.com/{z}/{x}/{y}.png
    source_type: tile_server
widgets:
  - name: location
    kind: point
    srid: 4326
    widget_id: id_location
  - name: parcels
    kind: MultiPolygon
    srid: 3857
    widget_id: id_parcels
    shared_zoom_key: true
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(catalogueYAML))
	require.NoError(t, err)

	assert.Equal(t, 36.8, c.Map.CenterLon)
	assert.Equal(t, float64(10), c.Map.DefaultZoom)
	require.Len(t, c.TileLayers, 1)
	assert.Equal(t, widget.SourceTileServer, c.TileLayers[0].SourceType)

	d, ok := c.Definition("location")
	require.True(t, ok)
	assert.Equal(t, geom.KindPoint, d.Kind, "kind is normalised")

	d, ok = c.Definition("parcels")
	require.True(t, ok)
	assert.True(t, d.SharedZoomKey)

	_, ok = c.Definition("missing")
	assert.False(t, ok)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no widgets", "map: {}\n"},
		{"unknown kind", "widgets:\n  - {name: a, kind: Circle, srid: 4326, widget_id: a}\n"},
		{"zero srid", "widgets:\n  - {name: a, kind: Point, srid: 0, widget_id: a}\n"},
		{"empty widget id", "widgets:\n  - {name: a, kind: Point, srid: 4326, widget_id: ' '}\n"},
		{"duplicate", "widgets:\n  - {name: a, kind: Point, srid: 4326, widget_id: a}\n  - {name: a, kind: Point, srid: 4326, widget_id: b}\n"},
		{"untitled layer", "tile_layers:\n  - {url: x}\nwidgets:\n  - {name: a, kind: Point, srid: 4326, widget_id: a}\n"},
		{"bad yaml", "widgets: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, c.Validate())
	_, ok := c.Definition("location")
	assert.True(t, ok)

	path := filepath.Join(t.TempDir(), "widgets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogueYAML), 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Widgets, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWidgetConfig(t *testing.T) {
	c, err := Parse([]byte(catalogueYAML))
	require.NoError(t, err)
	d, _ := c.Definition("parcels")

	extra := widget.TileLayerDescriptor{Title: "city.pmtiles", URL: "/tiles/city.pmtiles", SourceType: widget.SourcePMTiles}
	cfg := c.WidgetConfig(d, "SRID=3857;MULTIPOLYGON(((0 0,1 0,1 1,0 0)))", extra)

	assert.Equal(t, "id_parcels", cfg.ID)
	assert.Equal(t, geom.KindMultiPolygon, cfg.Kind)
	assert.Equal(t, 3857, cfg.SRID)
	assert.True(t, cfg.SharedZoomKey)
	require.Len(t, cfg.TileLayers, 2)
	assert.Equal(t, "city.pmtiles", cfg.TileLayers[1].Title)
	assert.NoError(t, cfg.Validate())
}
