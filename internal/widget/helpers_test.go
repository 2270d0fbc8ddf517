package widget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geo-widget/internal/geom"
	"github.com/joeblew999/geo-widget/internal/logging"
	"github.com/joeblew999/geo-widget/internal/storage"
)

// fakeScheduler fires timers only when Advance moves its clock past them.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type env struct {
	durable *storage.Memory
	session *storage.Memory
	sched   *fakeScheduler
}

func newEnv() *env {
	return &env{durable: storage.NewMemory(), session: storage.NewMemory(), sched: &fakeScheduler{}}
}

func (e *env) deps() Deps {
	return Deps{
		Durable:   e.durable.Scope("client"),
		Session:   e.session.Scope("session"),
		Scheduler: e.sched,
		Logger:    logging.Discard(),
	}
}

func testConfig(id string, kind geom.Kind) Config {
	return Config{
		ID:   id,
		Kind: kind,
		SRID: 4326,
		TileLayers: []TileLayerDescriptor{
			{Title: "Satellite", URL: "https://tiles.example.com/sat/{z}/{x}/{y}.png", SourceType: SourceTileServer},
			{Title: "Topo Map", URL: "https://tiles.example.com/topo/{z}/{x}/{y}.png", SourceType: SourceTileServer, IconURL: "/icons/topo.png"},
			{Title: "Legacy", URL: "https://legacy.example.com", SourceType: "wms"},
		},
	}
}

func (e *env) newWidget(t *testing.T, cfg Config) *Widget {
	t.Helper()
	w, err := New(context.Background(), cfg, e.deps())
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}
