// Package metrics records pipeline and scope events as Prometheus metrics.
//
// [Hooks] implements both [observability.PipelineHooks] and
// [observability.ScopeHooks] on a private registry, so several instances
// can coexist (one per test, for example). A short-lived CLI run has no
// scrape endpoint; [Hooks.WriteTextfile] dumps the registry in the text
// exposition format for the node_exporter textfile collector instead.
//
//	m := metrics.New()
//	observability.SetPipelineHooks(m)
//	observability.SetScopeHooks(m)
//	// ... run the pipeline
//	err := m.WriteTextfile("/var/lib/node_exporter/scopeview.prom")
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/scopeview/pkg/observability"
)

const namespace = "scopeview"

// Stage label values.
const (
	StageLoad      = "load"
	StageHierarchy = "hierarchy"
	StageExpand    = "expand"
	StageRender    = "render"
)

// Hooks collects pipeline metrics.
type Hooks struct {
	observability.NoopPipelineHooks

	reg *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	ops           prometheus.Gauge
	hierarchy     prometheus.Gauge
	scopesBuilt   prometheus.Counter
	scopeNodes    *prometheus.HistogramVec
	annotations   prometheus.Histogram
}

// New creates hooks backed by a fresh registry.
func New() *Hooks {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Hooks{
		reg: reg,
		stageTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_total",
			Help:      "Pipeline stages run, by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		ops: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_ops",
			Help:      "Ops in the last loaded graph.",
		}),
		hierarchy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hierarchy_nodes",
			Help:      "Nodes in the last built hierarchy.",
		}),
		scopesBuilt: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scopes_built_total",
			Help:      "Scopes whose render graph was built.",
		}),
		scopeNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scope_nodes",
			Help:      "Children of a built scope, by where they are drawn.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"place"}),
		annotations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scope_annotations",
			Help:      "Annotations drawn in a built scope.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Registry returns the registry the metrics live in.
func (h *Hooks) Registry() *prometheus.Registry { return h.reg }

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (h *Hooks) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, h.reg)
}

func (h *Hooks) complete(stage string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.stageTotal.WithLabelValues(stage, status).Inc()
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (h *Hooks) OnLoadComplete(_ context.Context, _ string, opCount int, d time.Duration, err error) {
	h.complete(StageLoad, d, err)
	if err == nil {
		h.ops.Set(float64(opCount))
	}
}

func (h *Hooks) OnHierarchyComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	h.complete(StageHierarchy, d, err)
	if err == nil {
		h.hierarchy.Set(float64(nodeCount))
	}
}

func (h *Hooks) OnExpandComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	h.complete(StageExpand, d, err)
}

func (h *Hooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.complete(StageRender, d, err)
}

func (h *Hooks) OnScopeBuilt(_ context.Context, _ string, s observability.ScopeStats) {
	h.scopesBuilt.Inc()
	h.scopeNodes.WithLabelValues("core").Observe(float64(s.Core))
	h.scopeNodes.WithLabelValues("in-extract").Observe(float64(s.InExtract))
	h.scopeNodes.WithLabelValues("out-extract").Observe(float64(s.OutExtract))
	h.scopeNodes.WithLabelValues("library").Observe(float64(s.Library))
	h.annotations.Observe(float64(s.Annotations))
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.ScopeHooks    = (*Hooks)(nil)
)
