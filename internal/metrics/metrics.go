// Package metrics records build and rebuild metrics for the dev server.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the prometheus collectors for the build core.
type Recorder struct {
	registry      *prom.Registry
	buildDuration prom.Histogram
	buildOutcomes *prom.CounterVec
	dirtyEvents   prom.Counter
	rebuilds      *prom.CounterVec
}

// NewRecorder constructs and registers the collectors. Passing nil creates
// a private registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{registry: reg}

	r.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "siteforge",
		Name:      "build_duration_seconds",
		Help:      "Total full-build duration",
		Buckets:   prom.DefBuckets,
	})
	r.buildOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "siteforge",
		Name:      "build_outcomes_total",
		Help:      "Build outcome counts by result",
	}, []string{"result"})
	r.dirtyEvents = prom.NewCounter(prom.CounterOpts{
		Namespace: "siteforge",
		Name:      "rebuild_dirty_events_total",
		Help:      "Source-tree change notifications that set the dirty flag",
	})
	r.rebuilds = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "siteforge",
		Name:      "rebuilds_total",
		Help:      "Rebuild requests by trigger",
	}, []string{"trigger"})

	reg.MustRegister(r.buildDuration, r.buildOutcomes, r.dirtyEvents, r.rebuilds)
	return r
}

// ObserveBuild records one full build.
func (r *Recorder) ObserveBuild(d time.Duration, success bool) {
	r.buildDuration.Observe(d.Seconds())
	result := "success"
	if !success {
		result = "failure"
	}
	r.buildOutcomes.WithLabelValues(result).Inc()
}

// IncDirty counts a change notification that marked the tree dirty.
func (r *Recorder) IncDirty() { r.dirtyEvents.Inc() }

// IncRebuild counts a rebuild request by trigger ("poll" or "explicit").
func (r *Recorder) IncRebuild(trigger string) { r.rebuilds.WithLabelValues(trigger).Inc() }

// Handler serves the registry for the dev server's /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
