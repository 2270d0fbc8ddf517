package widget

import (
	"fmt"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/metrics"
)

// ModeState is the interaction controller's state.
type ModeState string

const (
	ModeIdle      ModeState = "idle"
	ModeDrawing   ModeState = "drawing"
	ModeModifying ModeState = "modifying"
)

// Mode is the active interaction mode. Kind is set only while drawing.
type Mode struct {
	State ModeState `json:"state"`
	Kind  geom.Kind `json:"kind,omitempty"`
}

func (m Mode) String() string {
	if m.State == ModeDrawing {
		return fmt.Sprintf("%s(%s)", m.State, m.Kind)
	}
	return string(m.State)
}

// controller owns the single user-selected interaction. The permanent
// navigation interactions installed at construction are never touched
// because removal goes through the tracked handle only.
type controller struct {
	kind    geom.Kind
	m       *Map
	mode    Mode
	current *Interaction
}

func newController(kind geom.Kind, m *Map) *controller {
	return &controller{kind: kind, m: m, mode: Mode{State: ModeIdle}}
}

// CanDrawPolygon reports whether the polygon tool is offered.
func (c *controller) CanDrawPolygon() bool { return c.kind.Allows(geom.KindPolygon) }

// CanDrawLineString reports whether the line tool is offered.
func (c *controller) CanDrawLineString() bool { return c.kind.Allows(geom.KindLineString) }

// CanDrawPoint reports whether the point tool is offered.
func (c *controller) CanDrawPoint() bool { return c.kind.Allows(geom.KindPoint) }

func (c *controller) canDraw(k geom.Kind) bool {
	switch k {
	case geom.KindPolygon:
		return c.CanDrawPolygon()
	case geom.KindLineString:
		return c.CanDrawLineString()
	case geom.KindPoint:
		return c.CanDrawPoint()
	}
	return false
}

func (c *controller) deactivate() {
	if c.current != nil {
		c.m.RemoveInteraction(c.current.Handle)
		c.current = nil
	}
	c.mode = Mode{State: ModeIdle}
}

func (c *controller) activateDraw(k geom.Kind) error {
	if !c.canDraw(k) {
		return fmt.Errorf("%w: %s on %s widget", ErrKindNotAllowed, k, c.kind)
	}
	c.deactivate()
	i := c.m.AddInteraction(InteractionDraw, k)
	c.current = &i
	c.mode = Mode{State: ModeDrawing, Kind: k}
	metrics.InteractionActivationsTotal.WithLabelValues(string(ModeDrawing)).Inc()
	return nil
}

func (c *controller) activateModify() {
	c.deactivate()
	i := c.m.AddInteraction(InteractionModify, "")
	c.current = &i
	c.mode = Mode{State: ModeModifying}
	metrics.InteractionActivationsTotal.WithLabelValues(string(ModeModifying)).Inc()
}

// Toolbar actions.
const (
	ActionDrawPolygon    = "draw-polygon"
	ActionDrawLineString = "draw-linestring"
	ActionDrawPoint      = "draw-point"
	ActionModify         = "modify"
	ActionDelete         = "delete"
	ActionBaseLayer      = "baselayer"
)

// ToolbarButton is one rendered toolbar control.
type ToolbarButton struct {
	Action   string    `json:"action"`
	Title    string    `json:"title"`
	Icon     string    `json:"icon"`
	DrawKind geom.Kind `json:"drawKind,omitempty"`
	Active   bool      `json:"active"`
}

type toolDef struct {
	action  string
	title   string
	icon    string
	kind    geom.Kind
	enabled func(*controller) bool
}

var toolDefs = []toolDef{
	{ActionDrawPolygon, "Polygon", "https://img.icons8.com/ios-glyphs/30/ffffff/polygon.png", geom.KindPolygon, (*controller).CanDrawPolygon},
	{ActionDrawLineString, "LineString", "https://img.icons8.com/ios-filled/50/ffffff/polyline.png", geom.KindLineString, (*controller).CanDrawLineString},
	{ActionDrawPoint, "Point", "https://img.icons8.com/material-rounded/24/ffffff/filled-circle.png", geom.KindPoint, (*controller).CanDrawPoint},
	{ActionModify, "Modify feature", "https://img.icons8.com/ios-glyphs/24/ffffff/map-editing--v2.png", "", nil},
	{ActionDelete, "Clear the features", "https://img.icons8.com/ios-filled/24/ffffff/delete-sign.png", "", nil},
	{ActionBaseLayer, "Select baselayer", "https://img.icons8.com/ios-glyphs/30/ffffff/layers.png", "", nil},
}

func (c *controller) toolbar(panelOpen bool) []ToolbarButton {
	var out []ToolbarButton
	for _, d := range toolDefs {
		if d.enabled != nil && !d.enabled(c) {
			continue
		}
		b := ToolbarButton{Action: d.action, Title: d.title, Icon: d.icon, DrawKind: d.kind}
		switch d.action {
		case ActionModify:
			b.Active = c.mode.State == ModeModifying
		case ActionBaseLayer:
			b.Active = panelOpen
		case ActionDelete:
		default:
			b.Active = c.mode.State == ModeDrawing && c.mode.Kind == d.kind
		}
		out = append(out, b)
	}
	return out
}
