package widget

import (
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/joeblew999/geo-widget/internal/feature"
	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/metrics"
)

// textSync derives the persisted text from the feature store and applies
// user edits of the text back to the store.
//
// It listens for added and changed features only. Its own store mutations
// (eviction, replacement) produce removed and replaced events, so a text
// write never feeds back into another one.
type textSync struct {
	cfg   Config
	store *feature.Store
	form  *Form
	log   *slog.Logger
}

func newTextSync(cfg Config, store *feature.Store, form *Form, log *slog.Logger) *textSync {
	return &textSync{cfg: cfg, store: store, form: form, log: log}
}

func (e *textSync) attach() func() {
	return e.store.Subscribe(e.onEvent)
}

func (e *textSync) onEvent(ev feature.Event) {
	switch ev.Kind {
	case feature.EventAdded:
		e.onAdded(ev)
	case feature.EventChanged:
		e.onChanged(ev)
	}
}

func (e *textSync) onAdded(ev feature.Event) {
	if e.cfg.IsCollection() {
		e.writeCollection(ev.Origin)
		return
	}
	// Last drawn wins.
	for _, f := range e.store.Features() {
		if f.ID != ev.Feature.ID {
			e.store.Remove(f.ID, feature.OriginEviction)
		}
	}
	e.write(ev.Feature.Geometry, ev.Origin)
}

func (e *textSync) onChanged(ev feature.Event) {
	if e.cfg.IsCollection() {
		e.writeCollection(ev.Origin)
		return
	}
	e.write(ev.Feature.Geometry, ev.Origin)
}

func (e *textSync) writeCollection(origin feature.Origin) {
	merged := geom.Flatten(e.cfg.Kind, e.store.Geometries())
	if geom.KindOf(merged) != e.cfg.Kind {
		e.log.Warn("collection holds mixed geometry types", "kind", e.cfg.Kind, "written", geom.KindOf(merged))
	}
	e.write(merged, origin)
}

// write sets the persisted text for g. Point widgets build the text from
// the coordinate fields, which are first set from the point.
func (e *textSync) write(g orb.Geometry, origin feature.Origin) {
	if p, ok := g.(orb.Point); ok && e.cfg.Kind == geom.KindPoint {
		e.form.Lon = geom.FormatCoord(p[0])
		e.form.Lat = geom.FormatCoord(p[1])
		e.form.Text = geom.PointText(e.cfg.SRID, e.form.Lon, e.form.Lat)
	} else {
		e.form.Text = geom.EncodeEWKT(e.cfg.SRID, g)
	}
	metrics.TextWritesTotal.WithLabelValues(string(origin)).Inc()
	e.log.Debug("persisted text written", "origin", origin, "text", e.form.Text)
}

// apply handles a user edit of the persisted text. On a parse failure the
// store is left untouched and the error is returned for the caller to
// report.
func (e *textSync) apply(text string) (*geom.Decoded, error) {
	e.form.Text = text

	d, err := geom.Decode(text)
	if err != nil {
		metrics.ParseFailuresTotal.Inc()
		e.log.Info("persisted text ignored", "error", err)
		return nil, err
	}
	if d.SRID != 0 && d.SRID != e.cfg.SRID {
		e.log.Warn("persisted text srid differs from widget srid", "text_srid", d.SRID, "srid", e.cfg.SRID)
	}

	e.store.Replace([]orb.Geometry{d.Geometry}, feature.OriginText)
	if e.cfg.IsCollection() {
		e.writeCollection(feature.OriginText)
	} else {
		e.write(d.Geometry, feature.OriginText)
	}
	return d, nil
}
