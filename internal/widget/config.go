// Package widget keeps a map's drawn features synchronised with an
// SRID-qualified WKT form value, and manages the widget's interaction modes,
// coordinate fields, base layers and persisted view state.
package widget

import (
	"fmt"
	"strings"

	"github.com/joeblew999/geo-widget/internal/geom"
)

// Source types offered as base layers.
const (
	SourceTileServer = "tile_server"
	SourcePMTiles    = "pmtiles"
	SourceOSM        = "osm"
)

// TileLayerDescriptor describes one selectable base layer.
type TileLayerDescriptor struct {
	Title      string `json:"title" yaml:"title" doc:"Display title"`
	URL        string `json:"url" yaml:"url" doc:"XYZ URL template or tile archive URL"`
	SourceType string `json:"sourceType" yaml:"source_type" doc:"tile_server or pmtiles"`
	IconURL    string `json:"iconUrl,omitempty" yaml:"icon_url" doc:"Selector icon"`
}

// MapOptions are the view settings supplied with the widget.
type MapOptions struct {
	CenterLon     float64 `json:"centerLon" yaml:"center_lon"`
	CenterLat     float64 `json:"centerLat" yaml:"center_lat"`
	DefaultZoom   float64 `json:"defaultZoom" yaml:"default_zoom"`
	MinZoom       float64 `json:"minZoom" yaml:"min_zoom"`
	MaxZoom       float64 `json:"maxZoom" yaml:"max_zoom"`
	MaxResolution float64 `json:"maxResolution" yaml:"max_resolution"`
	Projection    string  `json:"projection" yaml:"projection"`
	Width         int     `json:"width" yaml:"width"`
	Height        int     `json:"height" yaml:"height"`
}

// DefaultMapOptions matches an EPSG:4326 OpenLayers view in a 600x400 map.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		DefaultZoom:   12,
		MinZoom:       0,
		MaxZoom:       28,
		MaxResolution: 360.0 / 256.0,
		Projection:    "EPSG:4326",
		Width:         600,
		Height:        400,
	}
}

func (o MapOptions) withDefaults() MapOptions {
	d := DefaultMapOptions()
	if o == (MapOptions{}) {
		return d
	}
	if o.MaxZoom == 0 {
		o.MaxZoom = d.MaxZoom
	}
	if o.MaxResolution == 0 {
		o.MaxResolution = d.MaxResolution
	}
	if o.Projection == "" {
		o.Projection = d.Projection
	}
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	return o
}

// Config is fixed at construction.
type Config struct {
	// ID is the form field identifier; it namespaces storage keys and
	// base-layer control ids.
	ID          string
	Kind        geom.Kind
	SRID        int
	InitialText string
	Map         MapOptions
	TileLayers  []TileLayerDescriptor

	// SharedZoomKey stores the zoom under the global "zoomLevel" key instead
	// of "<ID>_zoomLevel", so every widget on a page shares it.
	SharedZoomKey bool
}

// IsCollection reports whether features are merged into one multi geometry.
func (c Config) IsCollection() bool {
	return c.Kind.IsCollection()
}

// Validate checks the configuration and fills map defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("widget id is required")
	}
	if c.Kind == "" {
		c.Kind = geom.KindGeometry
	}
	k, err := geom.ParseKind(string(c.Kind))
	if err != nil {
		return err
	}
	c.Kind = k
	if c.SRID <= 0 {
		return fmt.Errorf("widget %s: srid must be positive, got %d", c.ID, c.SRID)
	}
	c.Map = c.Map.withDefaults()
	if c.Map.MinZoom < 0 {
		return fmt.Errorf("widget %s: min zoom %v is negative", c.ID, c.Map.MinZoom)
	}
	if c.Map.MinZoom > c.Map.MaxZoom {
		return fmt.Errorf("widget %s: min zoom %v exceeds max zoom %v", c.ID, c.Map.MinZoom, c.Map.MaxZoom)
	}
	return nil
}
