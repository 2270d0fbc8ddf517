// Package feature holds the in-memory collection of drawn features that backs
// a widget's vector layer.
package feature

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geo-widget/internal/geom"
)

// ErrNotFound is returned when a feature id is not in the store.
var ErrNotFound = errors.New("feature not found")

// Origin identifies which producer caused a store mutation.
type Origin string

const (
	OriginDraw        Origin = "draw"
	OriginModify      Origin = "modify"
	OriginText        Origin = "text"
	OriginCoordinates Origin = "coordinates"
	OriginDelete      Origin = "delete"
	OriginEviction    Origin = "eviction"
)

// EventKind is the type of a store mutation.
type EventKind int

const (
	EventAdded EventKind = iota
	EventChanged
	EventRemoved
	EventCleared
	EventReplaced
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	case EventCleared:
		return "cleared"
	case EventReplaced:
		return "replaced"
	}
	return "unknown"
}

// Feature is one drawn geometry.
type Feature struct {
	ID       uint64
	Geometry orb.Geometry
}

// Kind returns the geometry type tag.
func (f *Feature) Kind() geom.Kind {
	return geom.KindOf(f.Geometry)
}

// Event describes one mutation. Feature is nil for cleared and replaced events.
type Event struct {
	Kind    EventKind
	Feature *Feature
	Origin  Origin
}

// Listener receives store events synchronously, in subscription order.
type Listener func(Event)

// Store is an ordered collection of features. It is not safe for concurrent
// use; the owning widget serialises access.
type Store struct {
	features  []*Feature
	nextID    uint64
	listeners []listenerEntry
	nextSub   int
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	return func() {
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) emit(ev Event) {
	for _, e := range append([]listenerEntry(nil), s.listeners...) {
		e.fn(ev)
	}
}

func (s *Store) newFeature(g orb.Geometry) *Feature {
	s.nextID++
	return &Feature{ID: s.nextID, Geometry: g}
}

// Add appends a feature holding g and emits EventAdded.
func (s *Store) Add(g orb.Geometry, origin Origin) *Feature {
	f := s.newFeature(g)
	s.features = append(s.features, f)
	s.emit(Event{Kind: EventAdded, Feature: f, Origin: origin})
	return f
}

// Update replaces the geometry of feature id and emits EventChanged.
func (s *Store) Update(id uint64, g orb.Geometry, origin Origin) (*Feature, error) {
	f := s.Get(id)
	if f == nil {
		return nil, ErrNotFound
	}
	f.Geometry = g
	s.emit(Event{Kind: EventChanged, Feature: f, Origin: origin})
	return f, nil
}

// Remove deletes feature id and emits EventRemoved.
func (s *Store) Remove(id uint64, origin Origin) bool {
	for i, f := range s.features {
		if f.ID == id {
			s.features = append(s.features[:i], s.features[i+1:]...)
			s.emit(Event{Kind: EventRemoved, Feature: f, Origin: origin})
			return true
		}
	}
	return false
}

// Clear removes every feature and emits one EventCleared.
func (s *Store) Clear(origin Origin) {
	s.features = nil
	s.emit(Event{Kind: EventCleared, Origin: origin})
}

// Replace swaps the store contents for geoms and emits one EventReplaced.
func (s *Store) Replace(geoms []orb.Geometry, origin Origin) []*Feature {
	s.features = make([]*Feature, 0, len(geoms))
	for _, g := range geoms {
		s.features = append(s.features, s.newFeature(g))
	}
	s.emit(Event{Kind: EventReplaced, Origin: origin})
	return s.Features()
}

// Get returns feature id, or nil.
func (s *Store) Get(id uint64) *Feature {
	for _, f := range s.features {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Features returns the features in insertion order.
func (s *Store) Features() []*Feature {
	return append([]*Feature(nil), s.features...)
}

// Geometries returns the feature geometries in insertion order.
func (s *Store) Geometries() []orb.Geometry {
	out := make([]orb.Geometry, 0, len(s.features))
	for _, f := range s.features {
		out = append(out, f.Geometry)
	}
	return out
}

// Len returns the number of features.
func (s *Store) Len() int {
	return len(s.features)
}

// Last returns the most recently added feature, or nil.
func (s *Store) Last() *Feature {
	if len(s.features) == 0 {
		return nil
	}
	return s.features[len(s.features)-1]
}

// Bound returns the extent covering every feature.
func (s *Store) Bound() (orb.Bound, bool) {
	if len(s.features) == 0 {
		return orb.Bound{}, false
	}
	b := s.features[0].Geometry.Bound()
	for _, f := range s.features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b, true
}

// FeatureCollection renders the store as GeoJSON with each feature's id.
func (s *Store) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range s.features {
		gf := geojson.NewFeature(f.Geometry)
		gf.ID = f.ID
		gf.Properties["kind"] = string(f.Kind())
		fc.Append(gf)
	}
	return fc
}
