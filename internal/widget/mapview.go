package widget

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/joeblew999/geo-widget/internal/geom"
)

// PointZoomOffset is subtracted from the fitted zoom when the fitted extent
// is a single point, which would otherwise zoom to the maximum.
const PointZoomOffset = 8

// TileSource is the source of a map layer.
type TileSource struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Layer is one entry of the map's layer stack. Index 0 is the base layer.
type Layer struct {
	Name   string     `json:"name"`
	Source TileSource `json:"source"`
}

// InteractionType names a map interaction.
type InteractionType string

const (
	InteractionMouseWheelZoom    InteractionType = "MouseWheelZoom"
	InteractionDragRotateAndZoom InteractionType = "DragRotateAndZoom"
	InteractionDraw              InteractionType = "Draw"
	InteractionModify            InteractionType = "Modify"
)

// Interaction is an installed map interaction, identified by its handle.
type Interaction struct {
	Handle   uint64          `json:"handle"`
	Type     InteractionType `json:"type"`
	DrawKind geom.Kind       `json:"drawKind,omitempty"`
}

// View is the map viewport.
type View struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`

	opts MapOptions
}

// SetZoom sets the zoom, clamped to the configured range.
func (v *View) SetZoom(z float64) {
	v.Zoom = math.Max(v.opts.MinZoom, math.Min(v.opts.MaxZoom, z))
}

// Fit centres the view on b and picks the largest zoom at which b fits the
// map's pixel size. A degenerate extent fits at the maximum zoom.
func (v *View) Fit(b orb.Bound) {
	v.Center = b.Center()

	w, h := float64(v.opts.Width), float64(v.opts.Height)
	res := math.Max((b.Max[0]-b.Min[0])/w, (b.Max[1]-b.Min[1])/h)
	if res <= 0 {
		v.SetZoom(v.opts.MaxZoom)
		return
	}
	v.SetZoom(math.Log2(v.opts.MaxResolution / res))
}

// Map holds the layer stack, installed interactions and view.
type Map struct {
	Layers []Layer
	View   *View

	interactions []Interaction
	nextHandle   uint64
}

func newMap(opts MapOptions, base Layer) *Map {
	v := &View{Center: orb.Point{opts.CenterLon, opts.CenterLat}, opts: opts}
	v.SetZoom(opts.DefaultZoom)
	return &Map{
		Layers: []Layer{base, {Name: "features", Source: TileSource{Type: "vector"}}},
		View:   v,
	}
}

// ReplaceBase swaps the bottommost layer.
func (m *Map) ReplaceBase(l Layer) {
	m.Layers[0] = l
}

// AddInteraction installs an interaction and returns it with its handle.
func (m *Map) AddInteraction(t InteractionType, kind geom.Kind) Interaction {
	m.nextHandle++
	i := Interaction{Handle: m.nextHandle, Type: t, DrawKind: kind}
	m.interactions = append(m.interactions, i)
	return i
}

// RemoveInteraction removes exactly the interaction with handle h.
func (m *Map) RemoveInteraction(h uint64) bool {
	for idx, i := range m.interactions {
		if i.Handle == h {
			m.interactions = append(m.interactions[:idx], m.interactions[idx+1:]...)
			return true
		}
	}
	return false
}

// Interactions returns the installed interactions in installation order.
func (m *Map) Interactions() []Interaction {
	return append([]Interaction(nil), m.interactions...)
}
