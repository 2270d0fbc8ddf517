package widget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geo-widget/internal/feature"
	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/metrics"
	"github.com/joeblew999/geo-widget/internal/storage"
)

// Deps are the collaborators a widget needs beyond its Config.
type Deps struct {
	// Durable holds the base-layer choice across sessions.
	Durable storage.Store
	// Session holds the zoom level for the current browsing session.
	Session storage.Store
	// Scheduler runs the coordinate debounce; RealScheduler when nil.
	Scheduler Scheduler
	Logger    *slog.Logger
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// DeletePrompt is shown before clearing every feature.
const DeletePrompt = "Want to clear all features?"

// Widget is one geometry-editing widget instance. All methods are safe for
// concurrent use; calls are serialised so that every feature mutation has
// produced its text write before the next call starts.
type Widget struct {
	mu sync.Mutex

	cfg    Config
	log    *slog.Logger
	store  *feature.Store
	form   Form
	m      *Map
	engine *textSync
	ctrl   *controller
	layers *baseLayers
	view   *viewState
	coords *debouncer

	unsubscribe func()
	onChange    func(action string)
	textVisible bool
	closed      bool
}

// New builds a widget, restores its persisted base layer and, when the
// config carries initial text, loads that geometry and fits the view to it.
// Otherwise the session zoom is restored. Malformed initial text is logged
// and leaves the widget empty.
func New(ctx context.Context, cfg Config, deps Deps) (*Widget, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Durable == nil || deps.Session == nil {
		return nil, fmt.Errorf("widget %s: durable and session stores are required", cfg.ID)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = RealScheduler{}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("widget", cfg.ID)

	w := &Widget{
		cfg:   cfg,
		log:   log,
		store: feature.NewStore(),
		m:     newMap(cfg.Map, osmLayer(cfg.ID).layer()),
	}
	w.m.AddInteraction(InteractionMouseWheelZoom, "")
	w.m.AddInteraction(InteractionDragRotateAndZoom, "")

	w.engine = newTextSync(cfg, w.store, &w.form, log)
	w.ctrl = newController(cfg.Kind, w.m)
	w.layers = newBaseLayers(cfg.ID, cfg.TileLayers, w.m, deps.Durable, log)
	w.view = newViewState(cfg, w.m, deps.Session, log)
	w.coords = newDebouncer(deps.Scheduler, CoordinateDebounce)

	if err := w.layers.restore(ctx); err != nil {
		log.Warn("base layer not restored", "error", err)
	}

	w.unsubscribe = w.engine.attach()

	loaded := false
	if cfg.InitialText != "" {
		if d, err := w.engine.apply(cfg.InitialText); err == nil {
			w.fitTo(d.Kind())
			loaded = true
		}
	}
	if !loaded {
		if err := w.view.restoreZoom(ctx); err != nil {
			log.Warn("zoom not restored", "error", err)
		}
	}
	return w, nil
}

// ID returns the widget identifier.
func (w *Widget) ID() string { return w.cfg.ID }

// Config returns the widget configuration.
func (w *Widget) Config() Config { return w.cfg }

// OnChange registers fn to run after every state change with a short action
// name. fn runs with the widget locked and must not call back into it.
func (w *Widget) OnChange(fn func(action string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

func (w *Widget) changed(action string) {
	if w.onChange != nil {
		w.onChange(action)
	}
}

func (w *Widget) fitTo(k geom.Kind) {
	if b, ok := w.store.Bound(); ok {
		w.view.fit(b, k)
	}
}

// SetText applies a user edit of the persisted text. A text that does not
// decode returns an error wrapping geom.ErrParse and leaves the features
// unchanged.
func (w *Widget) SetText(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	d, err := w.engine.apply(text)
	if err != nil {
		w.changed("text-rejected")
		return err
	}
	w.fitTo(d.Kind())
	w.changed("text")
	return nil
}

// ToggleTextVisible shows or hides the raw text field.
func (w *Widget) ToggleTextVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.textVisible = !w.textVisible
	w.changed("text-visibility")
	return w.textVisible
}

// SetTextVisible shows or hides the raw text field.
func (w *Widget) SetTextVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.textVisible == visible {
		return
	}
	w.textVisible = visible
	w.changed("text-visibility")
}

// CanDrawPolygon reports whether the polygon tool is offered.
func (w *Widget) CanDrawPolygon() bool { return w.ctrl.CanDrawPolygon() }

// CanDrawLineString reports whether the line tool is offered.
func (w *Widget) CanDrawLineString() bool { return w.ctrl.CanDrawLineString() }

// CanDrawPoint reports whether the point tool is offered.
func (w *Widget) CanDrawPoint() bool { return w.ctrl.CanDrawPoint() }

// ActivateDraw switches to drawing features of kind k, replacing whatever
// interaction was active, and closes the base-layer panel.
func (w *Widget) ActivateDraw(k geom.Kind) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.ctrl.activateDraw(k); err != nil {
		return err
	}
	w.layers.panelOpen = false
	w.changed("mode")
	return nil
}

// ActivateModify switches to reshaping existing features.
func (w *Widget) ActivateModify() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.ctrl.activateModify()
	w.layers.panelOpen = false
	w.changed("mode")
	return nil
}

// Deactivate returns to the idle mode.
func (w *Widget) Deactivate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctrl.deactivate()
	w.changed("mode")
}

// Mode returns the active interaction mode.
func (w *Widget) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctrl.mode
}

// CompleteDraw adds a finished drawing. The geometry must match the active
// draw tool.
func (w *Widget) CompleteDraw(g orb.Geometry) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}
	if w.ctrl.mode.State != ModeDrawing {
		return 0, ErrNoDrawInteraction
	}
	if k := geom.KindOf(g); k != w.ctrl.mode.Kind {
		return 0, fmt.Errorf("%w: drew %s with the %s tool", ErrGeometryMismatch, k, w.ctrl.mode.Kind)
	}
	f := w.store.Add(g, feature.OriginDraw)
	w.changed("draw")
	return f.ID, nil
}

// ModifyFeature replaces the geometry of an existing feature after the user
// reshaped it.
func (w *Widget) ModifyFeature(id uint64, g orb.Geometry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.ctrl.mode.State != ModeModifying {
		return ErrNotModifying
	}
	f := w.store.Get(id)
	if f == nil {
		return fmt.Errorf("%w: %d", ErrUnknownFeature, id)
	}
	if geom.KindOf(g) != f.Kind() {
		return fmt.Errorf("%w: %s cannot become %s", ErrGeometryMismatch, f.Kind(), geom.KindOf(g))
	}
	if _, err := w.store.Update(id, g, feature.OriginModify); err != nil {
		return err
	}
	w.changed("modify")
	return nil
}

// Delete clears every feature, the persisted text and the coordinate fields
// once c confirms. It reports whether anything was cleared.
func (w *Widget) Delete(c Confirmer) bool {
	if !c.Confirm(DeletePrompt) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.clear()
	return true
}

func (w *Widget) clear() {
	w.coords.stop()
	w.store.Clear(feature.OriginDelete)
	w.form.clear()
	w.changed("delete")
}

// CoordinateInput handles an edit of the longitude or latitude field of a
// point widget. Valid input is written to the persisted text immediately;
// the feature and view follow once input has been quiet for
// CoordinateDebounce. Invalid input returns an error wrapping ErrValidation
// and changes nothing else.
func (w *Widget) CoordinateInput(lon, lat string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.cfg.Kind != geom.KindPoint {
		return ErrNotPointWidget
	}

	lon, lat = normaliseCoordinate(lon), normaliseCoordinate(lat)
	w.form.Lon, w.form.Lat = lon, lat
	if err := validateCoordinates(lon, lat); err != nil {
		metrics.ValidationFailuresTotal.Inc()
		w.changed("coordinates-rejected")
		return err
	}

	w.form.Text = geom.PointText(w.cfg.SRID, lon, lat)
	metrics.TextWritesTotal.WithLabelValues(string(feature.OriginCoordinates)).Inc()
	w.coords.trigger(func(gen uint64) { w.syncCoordinates(gen, lon, lat) })
	w.changed("coordinates")
	return nil
}

func (w *Widget) syncCoordinates(gen uint64, lon, lat string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// A delete or close may have run between the timer firing and the lock.
	if w.closed || !w.coords.current(gen) {
		return
	}

	d, err := geom.Decode(fmt.Sprintf("POINT(%s %s)", lon, lat))
	if err != nil {
		w.log.Warn("debounced coordinates did not decode", "lon", lon, "lat", lat, "error", err)
		return
	}
	w.store.Replace([]orb.Geometry{d.Geometry}, feature.OriginCoordinates)
	w.engine.write(d.Geometry, feature.OriginCoordinates)
	w.fitTo(d.Kind())
	metrics.DebouncedSyncsTotal.Inc()
	w.changed("coordinates-synced")
}

// SelectLayer makes id the base layer and persists the choice. The layer is
// applied even if persisting fails; that error is still returned.
func (w *Widget) SelectLayer(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	err := w.layers.selectLayer(ctx, id)
	if w.layers.active() == id {
		w.changed("baselayer")
	}
	return err
}

// ToggleLayerPanel opens or closes the base-layer selector. Opening it
// returns the controller to idle.
func (w *Widget) ToggleLayerPanel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctrl.deactivate()
	w.layers.panelOpen = !w.layers.panelOpen
	w.changed("baselayer-panel")
	return w.layers.panelOpen
}

// MoveEnd records the view after the user pans or zooms.
func (w *Widget) MoveEnd(ctx context.Context, zoom float64, center orb.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	err := w.view.moveEnd(ctx, zoom, center)
	w.changed("view")
	return err
}

// Close cancels any pending coordinate sync and detaches the text engine.
func (w *Widget) Close() {
	w.coords.stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.unsubscribe()
}

// State is a snapshot of everything the page renders.
type State struct {
	WidgetID     string                     `json:"widgetId"`
	Kind         geom.Kind                  `json:"kind"`
	SRID         int                        `json:"srid"`
	Collection   bool                       `json:"collection"`
	Text         string                     `json:"wkt"`
	Lon          string                     `json:"lon"`
	Lat          string                     `json:"lat"`
	TextVisible  bool                       `json:"textVisible"`
	Mode         Mode                       `json:"mode"`
	Features     *geojson.FeatureCollection `json:"features"`
	Toolbar      []ToolbarButton            `json:"toolbar"`
	BaseLayers   []BaseLayer                `json:"baseLayers"`
	ActiveLayer  string                     `json:"activeLayer"`
	PanelOpen    bool                       `json:"panelOpen"`
	Zoom         float64                    `json:"zoom"`
	Center       orb.Point                  `json:"center"`
	Layers       []Layer                    `json:"layers"`
	Interactions []Interaction              `json:"interactions"`
	SyncPending  bool                       `json:"syncPending"`
}

// Snapshot returns the current state.
func (w *Widget) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		WidgetID:     w.cfg.ID,
		Kind:         w.cfg.Kind,
		SRID:         w.cfg.SRID,
		Collection:   w.cfg.IsCollection(),
		Text:         w.form.Text,
		Lon:          w.form.Lon,
		Lat:          w.form.Lat,
		TextVisible:  w.textVisible,
		Mode:         w.ctrl.mode,
		Features:     w.store.FeatureCollection(),
		Toolbar:      w.ctrl.toolbar(w.layers.panelOpen),
		BaseLayers:   w.layers.list(),
		ActiveLayer:  w.layers.active(),
		PanelOpen:    w.layers.panelOpen,
		Zoom:         w.m.View.Zoom,
		Center:       w.m.View.Center,
		Layers:       append([]Layer(nil), w.m.Layers...),
		Interactions: w.m.Interactions(),
		SyncPending:  w.coords.pending(),
	}
}

// Features returns the drawn features in insertion order.
func (w *Widget) Features() []*feature.Feature {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Features()
}
