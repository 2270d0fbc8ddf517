// Package metrics exposes Prometheus counters for widget activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TextWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geowidget_text_writes_total",
		Help: "Persisted text writes, by producer",
	}, []string{"origin"})
	ParseFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geowidget_parse_failures_total",
		Help: "Persisted text values that failed to decode",
	})
	ValidationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geowidget_validation_failures_total",
		Help: "Coordinate inputs rejected as empty or non-numeric",
	})
	DebouncedSyncsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geowidget_debounced_syncs_total",
		Help: "Coordinate syncs executed after the debounce window",
	})
	BaseLayerSelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geowidget_baselayer_selections_total",
		Help: "Base-layer selections, by how they were triggered",
	}, []string{"trigger"})
	InteractionActivationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geowidget_interaction_activations_total",
		Help: "Interaction mode activations, by mode",
	}, []string{"mode"})
	LiveWidgets = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geowidget_live_widgets",
		Help: "Widget instances currently held by the server",
	})
)

func init() {
	prometheus.MustRegister(
		TextWritesTotal,
		ParseFailuresTotal,
		ValidationFailuresTotal,
		DebouncedSyncsTotal,
		BaseLayerSelectionsTotal,
		InteractionActivationsTotal,
		LiveWidgets,
	)
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
