package widget

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-widget/internal/geom"
)

func TestMoveEndSavesNamespacedZoom(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	w1 := e.newWidget(t, testConfig("w1", geom.KindPolygon))
	require.NoError(t, w1.MoveEnd(ctx, 7, orb.Point{10, 20}))

	v, ok, err := e.session.Scope("session").Get(ctx, "w1_zoomLevel")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "7", v)

	again := e.newWidget(t, testConfig("w1", geom.KindPolygon))
	assert.Equal(t, float64(7), again.Snapshot().Zoom)

	other := e.newWidget(t, testConfig("w2", geom.KindPolygon))
	assert.Equal(t, float64(12), other.Snapshot().Zoom)
}

func TestSharedZoomKey(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	cfg := testConfig("w1", geom.KindPolygon)
	cfg.SharedZoomKey = true
	w := e.newWidget(t, cfg)
	require.NoError(t, w.MoveEnd(ctx, 9.5, orb.Point{}))

	v, ok, err := e.session.Scope("session").Get(ctx, SharedZoomKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "9.5", v)

	cfg2 := testConfig("w2", geom.KindLineString)
	cfg2.SharedZoomKey = true
	assert.Equal(t, 9.5, e.newWidget(t, cfg2).Snapshot().Zoom)
}

func TestMoveEndClampsZoom(t *testing.T) {
	w := newEnv().newWidget(t, testConfig("w1", geom.KindPolygon))
	require.NoError(t, w.MoveEnd(context.Background(), 40, orb.Point{}))
	assert.Equal(t, float64(28), w.Snapshot().Zoom)
}

func TestViewFit(t *testing.T) {
	opts := DefaultMapOptions()
	v := &View{opts: opts}

	// A box a quarter of the zoom-0 map width fits at zoom 2.
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{360.0 / 256.0 * 600 / 4, 1}}
	v.Fit(b)
	assert.InDelta(t, 2, v.Zoom, 1e-9)
	assert.Equal(t, b.Center(), v.Center)

	tall := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 360.0 / 256.0 * 400 / 8}}
	v.Fit(tall)
	assert.InDelta(t, 3, v.Zoom, 1e-9)

	v.Fit(orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{5, 5}})
	assert.Equal(t, opts.MaxZoom, v.Zoom)

	v.Fit(orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}})
	assert.InDelta(t, math.Log2(600.0/256.0), v.Zoom, 1e-9)
}

func TestMultiPointFitAppliesOffset(t *testing.T) {
	e := newEnv()
	cfg := testConfig("w1", geom.KindMultiPoint)
	cfg.InitialText = "SRID=4326;MULTIPOINT((0 0),(1.40625 0))"
	w := e.newWidget(t, cfg)

	// 1.40625 deg over 600 px fits at log2(600) before the offset.
	assert.InDelta(t, math.Log2(600)-PointZoomOffset, w.Snapshot().Zoom, 1e-9)
}
