package widget

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-widget/internal/geom"
)

func TestCoordinateInputWritesImmediately(t *testing.T) {
	e := newEnv()
	w := e.newWidget(t, testConfig("w1", geom.KindPoint))

	require.NoError(t, w.CoordinateInput("12.5", "41.9"))

	s := w.Snapshot()
	assert.Equal(t, "SRID=4326;POINT(12.5 41.9)", s.Text)
	assert.True(t, s.SyncPending)
	assert.Empty(t, w.Features(), "features follow only after the debounce window")
}

func TestCoordinateInputDebounceCollapses(t *testing.T) {
	e := newEnv()
	w := e.newWidget(t, testConfig("w1", geom.KindPoint))
	syncs := 0
	w.OnChange(func(a string) {
		if a == "coordinates-synced" {
			syncs++
		}
	})

	inputs := [][2]string{{"1", "2"}, {"1.5", "2"}, {"1.5", "2.5"}, {"12.50", "41.9"}}
	for _, in := range inputs {
		require.NoError(t, w.CoordinateInput(in[0], in[1]))
		e.sched.Advance(300 * time.Millisecond)
	}
	assert.Equal(t, 0, syncs)

	e.sched.Advance(CoordinateDebounce)
	assert.Equal(t, 1, syncs)

	fs := w.Features()
	require.Len(t, fs, 1)
	assert.Equal(t, orb.Point{12.5, 41.9}, fs[0].Geometry)

	s := w.Snapshot()
	assert.Equal(t, "SRID=4326;POINT(12.5 41.9)", s.Text)
	assert.Equal(t, "12.5", s.Lon)
	assert.Equal(t, orb.Point{12.5, 41.9}, s.Center)
	assert.Equal(t, float64(28-PointZoomOffset), s.Zoom)
	assert.False(t, s.SyncPending)

	e.sched.Advance(10 * CoordinateDebounce)
	assert.Equal(t, 1, syncs)
}

func TestCoordinateInputValidation(t *testing.T) {
	e := newEnv()
	w := e.newWidget(t, testConfig("w1", geom.KindPoint))
	require.NoError(t, w.SetText("SRID=4326;POINT(1 2)"))

	tests := []struct {
		name     string
		lon, lat string
	}{
		{"empty longitude", "", "41.9"},
		{"empty latitude", "12.5", ""},
		{"text", "east", "41.9"},
		{"nan", "NaN", "41.9"},
		{"infinite", "12.5", "Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.CoordinateInput(tt.lon, tt.lat)
			assert.ErrorIs(t, err, ErrValidation)

			s := w.Snapshot()
			assert.Equal(t, "SRID=4326;POINT(1 2)", s.Text)
			assert.False(t, s.SyncPending)
		})
	}

	e.sched.Advance(2 * CoordinateDebounce)
	require.Len(t, w.Features(), 1)
	assert.Equal(t, orb.Point{1, 2}, w.Features()[0].Geometry)
}

func TestCoordinateInputPointOnly(t *testing.T) {
	w := newEnv().newWidget(t, testConfig("w1", geom.KindPolygon))
	assert.ErrorIs(t, w.CoordinateInput("1", "2"), ErrNotPointWidget)
}

func TestCloseCancelsPendingSync(t *testing.T) {
	e := newEnv()
	w := e.newWidget(t, testConfig("w1", geom.KindPoint))
	require.NoError(t, w.CoordinateInput("1", "2"))
	w.Close()

	e.sched.Advance(2 * CoordinateDebounce)
	assert.Empty(t, w.Features())
}

func TestDeleteWinsOverFiringSync(t *testing.T) {
	e := newEnv()
	w := e.newWidget(t, testConfig("w1", geom.KindPoint))
	require.NoError(t, w.CoordinateInput("12.5", "41.9"))

	// The timer fires while another call holds the widget; the sync then
	// waits for the lock while the delete clears everything.
	w.mu.Lock()
	fired := make(chan struct{})
	go func() {
		e.sched.Advance(CoordinateDebounce)
		close(fired)
	}()
	require.Eventually(t, func() bool { return !w.coords.pending() }, time.Second, time.Millisecond)
	w.clear()
	w.mu.Unlock()
	<-fired

	s := w.Snapshot()
	assert.Empty(t, w.Features())
	assert.Empty(t, s.Text)
	assert.Empty(t, s.Lon)
	assert.Empty(t, s.Lat)
}
