// Package config loads the widget catalogue: the map options, base-layer
// descriptors and named widget definitions a page can instantiate.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/widget"
)

// Definition is one named widget a form can embed.
type Definition struct {
	Name          string    `json:"name" yaml:"name" doc:"Definition name" example:"location"`
	Title         string    `json:"title,omitempty" yaml:"title" doc:"Human readable label"`
	Kind          geom.Kind `json:"kind" yaml:"kind" doc:"Geometry kind" example:"Point"`
	SRID          int       `json:"srid" yaml:"srid" doc:"Spatial reference id" example:"4326"`
	WidgetID      string    `json:"widgetId" yaml:"widget_id" doc:"Form field id; namespaces stored state" example:"id_location"`
	SharedZoomKey bool      `json:"sharedZoomKey,omitempty" yaml:"shared_zoom_key" doc:"Share one zoom level across widgets"`
}

// Catalogue is the parsed widgets.yaml.
type Catalogue struct {
	Map        widget.MapOptions            `yaml:"map"`
	TileLayers []widget.TileLayerDescriptor `yaml:"tile_layers"`
	Widgets    []Definition                 `yaml:"widgets"`
}

// Default is used when no catalogue file is configured.
func Default() *Catalogue {
	return &Catalogue{
		Map: widget.DefaultMapOptions(),
		TileLayers: []widget.TileLayerDescriptor{
			{
				Title:      "OpenTopoMap",
				URL:        "https://tile.opentopomap.org/{z}/{x}/{y}.png",
				SourceType: widget.SourceTileServer,
			},
		},
		Widgets: []Definition{
			{Name: "location", Title: "Location", Kind: geom.KindPoint, SRID: 4326, WidgetID: "id_location"},
			{Name: "route", Title: "Route", Kind: geom.KindLineString, SRID: 4326, WidgetID: "id_route"},
			{Name: "area", Title: "Area", Kind: geom.KindPolygon, SRID: 4326, WidgetID: "id_area"},
			{Name: "sites", Title: "Sites", Kind: geom.KindMultiPoint, SRID: 4326, WidgetID: "id_sites"},
			{Name: "geometry", Title: "Any geometry", Kind: geom.KindGeometry, SRID: 4326, WidgetID: "id_geometry"},
		},
	}
}

// Load reads the catalogue at path, or returns Default when path is empty.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading widget catalogue: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalogue document.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing widget catalogue: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate normalises kinds and rejects unusable definitions.
func (c *Catalogue) Validate() error {
	if len(c.Widgets) == 0 {
		return fmt.Errorf("catalogue defines no widgets")
	}
	names := map[string]bool{}
	for i := range c.Widgets {
		d := &c.Widgets[i]
		if d.Name == "" {
			return fmt.Errorf("widget %d: name is required", i)
		}
		if names[d.Name] {
			return fmt.Errorf("widget %q defined twice", d.Name)
		}
		names[d.Name] = true

		k, err := geom.ParseKind(string(d.Kind))
		if err != nil {
			return fmt.Errorf("widget %q: %w", d.Name, err)
		}
		d.Kind = k
		if d.SRID <= 0 {
			return fmt.Errorf("widget %q: srid must be positive", d.Name)
		}
		if strings.TrimSpace(d.WidgetID) == "" {
			return fmt.Errorf("widget %q: widget_id is required", d.Name)
		}
	}
	for _, l := range c.TileLayers {
		if l.Title == "" {
			return fmt.Errorf("tile layer %q: title is required", l.URL)
		}
	}
	return nil
}

// Definition looks up a widget definition by name.
func (c *Catalogue) Definition(name string) (Definition, bool) {
	for _, d := range c.Widgets {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// WidgetConfig builds the construction config for a definition. extra
// descriptors are offered after the catalogue's own tile layers.
func (c *Catalogue) WidgetConfig(d Definition, initialText string, extra ...widget.TileLayerDescriptor) widget.Config {
	layers := make([]widget.TileLayerDescriptor, 0, len(c.TileLayers)+len(extra))
	layers = append(layers, c.TileLayers...)
	layers = append(layers, extra...)
	return widget.Config{
		ID:            d.WidgetID,
		Kind:          d.Kind,
		SRID:          d.SRID,
		InitialText:   initialText,
		Map:           c.Map,
		TileLayers:    layers,
		SharedZoomKey: d.SharedZoomKey,
	}
}
