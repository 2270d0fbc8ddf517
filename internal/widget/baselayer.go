package widget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/joeblew999/geo-widget/internal/metrics"
	"github.com/joeblew999/geo-widget/internal/storage"
)

const (
	DefaultIconURL = "https://img.icons8.com/cotton/256/000000/globe.png"
	OSMIconURL     = "/static/img/Openstreetmap_logo.png"
)

// BaseLayer is a selectable base-layer candidate.
type BaseLayer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	IconURL    string `json:"iconUrl"`
	SourceType string `json:"sourceType"`
	URL        string `json:"url,omitempty"`
	Active     bool   `json:"active"`
}

func (b BaseLayer) layer() Layer {
	return Layer{Name: b.Name, Source: TileSource{Type: b.SourceType, URL: b.URL}}
}

// LayerID derives a candidate id from its title, namespaced by widget id.
func LayerID(title, widgetID string) string {
	var sb strings.Builder
	for _, r := range title {
		if !unicode.IsSpace(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String() + "_" + widgetID
}

func baseLayerKey(widgetID string) string {
	return widgetID + "_baselayer"
}

func osmLayer(widgetID string) BaseLayer {
	return BaseLayer{
		ID:         "osm_" + widgetID,
		Name:       "osm",
		Title:      "OSM",
		IconURL:    OSMIconURL,
		SourceType: SourceOSM,
	}
}

// baseLayers builds the candidate list and persists the selection. Each
// widget owns its candidates, so marking one active never affects another
// widget on the same page.
type baseLayers struct {
	widgetID   string
	candidates []BaseLayer
	panelOpen  bool
	m          *Map
	durable    storage.Store
	log        *slog.Logger
}

func newBaseLayers(widgetID string, descs []TileLayerDescriptor, m *Map, durable storage.Store, log *slog.Logger) *baseLayers {
	b := &baseLayers{widgetID: widgetID, m: m, durable: durable, log: log}
	seen := map[string]bool{}
	for _, d := range descs {
		if d.SourceType != SourceTileServer && d.SourceType != SourcePMTiles {
			continue
		}
		id := LayerID(d.Title, widgetID)
		if seen[id] {
			log.Warn("duplicate base layer title skipped", "title", d.Title)
			continue
		}
		seen[id] = true
		icon := d.IconURL
		if icon == "" {
			icon = DefaultIconURL
		}
		b.candidates = append(b.candidates, BaseLayer{
			ID:         id,
			Name:       strings.ToLower(d.Title),
			Title:      d.Title,
			IconURL:    icon,
			SourceType: d.SourceType,
			URL:        d.URL,
		})
	}
	b.candidates = append(b.candidates, osmLayer(widgetID))
	return b
}

func (b *baseLayers) find(id string) int {
	for i, c := range b.candidates {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (b *baseLayers) apply(id string) bool {
	idx := b.find(id)
	if idx < 0 {
		return false
	}
	b.m.ReplaceBase(b.candidates[idx].layer())
	for i := range b.candidates {
		b.candidates[i].Active = i == idx
	}
	return true
}

// restore applies a previously persisted selection, if any.
func (b *baseLayers) restore(ctx context.Context) error {
	id, ok, err := b.durable.Get(ctx, baseLayerKey(b.widgetID))
	if err != nil {
		return fmt.Errorf("reading base layer selection: %w", err)
	}
	if !ok {
		return nil
	}
	if !b.apply(id) {
		b.log.Warn("stored base layer no longer configured", "layer", id)
		return nil
	}
	metrics.BaseLayerSelectionsTotal.WithLabelValues("restore").Inc()
	b.log.Debug("base layer restored", "layer", id)
	return nil
}

func (b *baseLayers) selectLayer(ctx context.Context, id string) error {
	if !b.apply(id) {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	metrics.BaseLayerSelectionsTotal.WithLabelValues("user").Inc()
	if err := b.durable.Set(ctx, baseLayerKey(b.widgetID), id); err != nil {
		return fmt.Errorf("persisting base layer selection: %w", err)
	}
	return nil
}

func (b *baseLayers) active() string {
	for _, c := range b.candidates {
		if c.Active {
			return c.ID
		}
	}
	return ""
}

func (b *baseLayers) list() []BaseLayer {
	return append([]BaseLayer(nil), b.candidates...)
}
