package widget

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-widget/internal/geom"
)

func toolbarActions(s State) []string {
	var out []string
	for _, b := range s.Toolbar {
		out = append(out, b.Action)
	}
	return out
}

func TestToolbarFollowsKind(t *testing.T) {
	tests := []struct {
		kind geom.Kind
		want []string
	}{
		{geom.KindPoint, []string{ActionDrawPoint, ActionModify, ActionDelete, ActionBaseLayer}},
		{geom.KindMultiPoint, []string{ActionDrawPoint, ActionModify, ActionDelete, ActionBaseLayer}},
		{geom.KindLineString, []string{ActionDrawLineString, ActionModify, ActionDelete, ActionBaseLayer}},
		{geom.KindMultiPolygon, []string{ActionDrawPolygon, ActionModify, ActionDelete, ActionBaseLayer}},
		{geom.KindGeometry, []string{ActionDrawPolygon, ActionDrawLineString, ActionDrawPoint, ActionModify, ActionDelete, ActionBaseLayer}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := newEnv().newWidget(t, testConfig("w1", tt.kind))
			assert.Equal(t, tt.want, toolbarActions(w.Snapshot()))
		})
	}
}

func TestCapabilityQueries(t *testing.T) {
	w := newEnv().newWidget(t, testConfig("w1", geom.KindMultiLineString))
	assert.True(t, w.CanDrawLineString())
	assert.False(t, w.CanDrawPolygon())
	assert.False(t, w.CanDrawPoint())

	err := w.ActivateDraw(geom.KindPolygon)
	assert.ErrorIs(t, err, ErrKindNotAllowed)
	assert.Equal(t, ModeIdle, w.Mode().State)
}

func TestActivationReplacesOnlyTrackedInteraction(t *testing.T) {
	w := newEnv().newWidget(t, testConfig("w1", geom.KindGeometry))

	types := func() []InteractionType {
		var out []InteractionType
		for _, i := range w.Snapshot().Interactions {
			out = append(out, i.Type)
		}
		return out
	}
	base := []InteractionType{InteractionMouseWheelZoom, InteractionDragRotateAndZoom}
	assert.Equal(t, base, types())

	require.NoError(t, w.ActivateDraw(geom.KindPolygon))
	require.NoError(t, w.ActivateDraw(geom.KindPoint))
	assert.Equal(t, append(base, InteractionDraw), types())
	assert.Equal(t, Mode{State: ModeDrawing, Kind: geom.KindPoint}, w.Mode())

	require.NoError(t, w.ActivateModify())
	assert.Equal(t, append(base, InteractionModify), types())

	w.Deactivate()
	w.Deactivate()
	assert.Equal(t, base, types())
	assert.Equal(t, ModeIdle, w.Mode().State)
}

func TestCompleteDrawRequiresMatchingTool(t *testing.T) {
	w := newEnv().newWidget(t, testConfig("w1", geom.KindGeometry))

	_, err := w.CompleteDraw(orb.Point{1, 1})
	assert.ErrorIs(t, err, ErrNoDrawInteraction)

	require.NoError(t, w.ActivateDraw(geom.KindLineString))
	_, err = w.CompleteDraw(orb.Point{1, 1})
	assert.ErrorIs(t, err, ErrGeometryMismatch)
	assert.Empty(t, w.Features())
}

func TestDrawToolClosesLayerPanel(t *testing.T) {
	w := newEnv().newWidget(t, testConfig("w1", geom.KindPolygon))

	require.NoError(t, w.ActivateDraw(geom.KindPolygon))
	assert.True(t, w.ToggleLayerPanel())
	assert.Equal(t, ModeIdle, w.Mode().State, "opening the panel drops the draw tool")

	require.NoError(t, w.ActivateDraw(geom.KindPolygon))
	s := w.Snapshot()
	assert.False(t, s.PanelOpen)
	for _, b := range s.Toolbar {
		assert.Equal(t, b.Action == ActionDrawPolygon, b.Active, b.Action)
	}
}
