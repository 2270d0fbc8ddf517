package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/geo-widget/internal/config"
	"github.com/joeblew999/geo-widget/internal/metrics"
	"github.com/joeblew999/geo-widget/internal/storage"
	"github.com/joeblew999/geo-widget/internal/widget"
)

var (
	ErrWidgetNotFound    = errors.New("widget instance not found")
	ErrUnknownDefinition = errors.New("unknown widget definition")
)

// Instance is a live widget bound to the browser that created it.
type Instance struct {
	ID         string
	Definition string
	ClientID   string
	SessionID  string
	Created    time.Time
	Widget     *widget.Widget
}

// WidgetConfig configures the widget registry.
type WidgetConfig struct {
	Catalogue *config.Catalogue
	// Tiles adds local PMTiles archives to every widget's base layers.
	Tiles *TileService
	// Durable is scoped by client id, Session by session id.
	Durable   storage.Backend
	Session   storage.Backend
	Bus       *EventBus
	Scheduler widget.Scheduler
	Logger    *slog.Logger
}

// WidgetService creates, looks up and tears down widget instances.
type WidgetService struct {
	cfg WidgetConfig
	log *slog.Logger

	mu        sync.RWMutex
	instances map[string]*Instance
}

// NewWidgetService creates an empty registry.
func NewWidgetService(cfg WidgetConfig) *WidgetService {
	if cfg.Bus == nil {
		cfg.Bus = NewEventBus()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &WidgetService{
		cfg:       cfg,
		log:       log.With("component", "widgets"),
		instances: make(map[string]*Instance),
	}
}

// Bus returns the bus widget changes are published on.
func (s *WidgetService) Bus() *EventBus { return s.cfg.Bus }

// Definitions lists the catalogue's widget definitions by name.
func (s *WidgetService) Definitions() []config.Definition {
	defs := append([]config.Definition(nil), s.cfg.Catalogue.Widgets...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Create constructs a widget from a catalogue definition. clientID and
// sessionID pick the storage partitions its persisted state lives in.
func (s *WidgetService) Create(ctx context.Context, definition, clientID, sessionID, initialText string) (*Instance, error) {
	def, ok := s.cfg.Catalogue.Definition(definition)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefinition, definition)
	}

	var extra []widget.TileLayerDescriptor
	if s.cfg.Tiles != nil {
		descs, err := s.cfg.Tiles.Descriptors()
		if err != nil {
			s.log.Warn("listing local tiles", "error", err)
		}
		extra = descs
	}

	id := uuid.NewString()
	w, err := widget.New(ctx, s.cfg.Catalogue.WidgetConfig(def, initialText, extra...), widget.Deps{
		Durable:   s.cfg.Durable.Scope(clientID),
		Session:   s.cfg.Session.Scope(sessionID),
		Scheduler: s.cfg.Scheduler,
		Logger:    s.log.With("instance", id),
	})
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		ID:         id,
		Definition: def.Name,
		ClientID:   clientID,
		SessionID:  sessionID,
		Created:    time.Now(),
		Widget:     w,
	}
	w.OnChange(func(action string) {
		s.cfg.Bus.Publish(Event{Resource: "widget", Action: action, ID: id})
	})

	s.mu.Lock()
	s.instances[id] = inst
	n := len(s.instances)
	s.mu.Unlock()

	metrics.LiveWidgets.Set(float64(n))
	s.log.Info("widget created", "instance", id, "definition", def.Name, "widget", def.WidgetID)
	return inst, nil
}

// Get returns the instance with id.
func (s *WidgetService) Get(id string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	return inst, nil
}

// List returns every live instance, oldest first.
func (s *WidgetService) List() []*Instance {
	s.mu.RLock()
	out := make([]*Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		out = append(out, inst)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Remove closes and forgets the instance with id.
func (s *WidgetService) Remove(id string) error {
	s.mu.Lock()
	inst, ok := s.instances[id]
	delete(s.instances, id)
	n := len(s.instances)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}

	inst.Widget.Close()
	metrics.LiveWidgets.Set(float64(n))
	s.cfg.Bus.Publish(Event{Resource: "widget", Action: "deleted", ID: id})
	s.log.Info("widget removed", "instance", id)
	return nil
}

// Close tears down every instance.
func (s *WidgetService) Close() {
	for _, inst := range s.List() {
		_ = s.Remove(inst.ID)
	}
}
