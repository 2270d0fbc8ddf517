package widget

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/storage"
)

// SharedZoomKey is the session key used when widgets share one zoom level.
const SharedZoomKey = "zoomLevel"

func zoomKey(cfg Config) string {
	if cfg.SharedZoomKey {
		return SharedZoomKey
	}
	return cfg.ID + "_zoomLevel"
}

type viewState struct {
	key     string
	kind    geom.Kind
	m       *Map
	session storage.Store
	log     *slog.Logger
}

func newViewState(cfg Config, m *Map, session storage.Store, log *slog.Logger) *viewState {
	return &viewState{key: zoomKey(cfg), kind: cfg.Kind, m: m, session: session, log: log}
}

// moveEnd records the view after the user pans or zooms.
func (v *viewState) moveEnd(ctx context.Context, zoom float64, center orb.Point) error {
	v.m.View.SetZoom(zoom)
	v.m.View.Center = center
	if err := v.session.Set(ctx, v.key, strconv.FormatFloat(v.m.View.Zoom, 'f', -1, 64)); err != nil {
		return fmt.Errorf("saving zoom level: %w", err)
	}
	return nil
}

// restoreZoom applies the saved session zoom; the configured default stays
// in place when none is saved.
func (v *viewState) restoreZoom(ctx context.Context) error {
	s, ok, err := v.session.Get(ctx, v.key)
	if err != nil {
		return fmt.Errorf("reading zoom level: %w", err)
	}
	if !ok {
		return nil
	}
	z, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v.log.Warn("ignoring unreadable saved zoom", "value", s)
		return nil
	}
	v.m.View.SetZoom(z)
	return nil
}

// fit frames the given extent. Point extents are backed off by
// PointZoomOffset levels.
func (v *viewState) fit(b orb.Bound, fitted geom.Kind) {
	v.m.View.Fit(b)
	if fitted == geom.KindPoint || v.kind == geom.KindMultiPoint {
		v.m.View.SetZoom(v.m.View.Zoom - PointZoomOffset)
	}
}
