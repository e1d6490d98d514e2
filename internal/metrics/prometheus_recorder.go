package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "denkenote"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	rebuildDuration prom.Histogram
	rebuildOutcome  *prom.CounterVec
	categories      prom.Gauge
	posts           prom.Gauge
	skipped         prom.Counter
	watchEvents     prom.Counter
	renderDuration  *prom.HistogramVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		rebuildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of full index rebuilds",
			Buckets:   prom.DefBuckets,
		}),
		rebuildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Index rebuilds by outcome",
		}, []string{"outcome"}),
		categories: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "index_categories",
			Help:      "Categories in the published index",
		}),
		posts: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "index_posts",
			Help:      "Posts in the published index",
		}),
		skipped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_files_total",
			Help:      "Markdown files skipped because they could not be parsed",
		}),
		watchEvents: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "File-system events seen by the content watcher",
		}),
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of page and PDF renders",
			Buckets:   prom.DefBuckets,
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(pr.rebuildDuration, pr.rebuildOutcome, pr.categories, pr.posts,
		pr.skipped, pr.watchEvents, pr.renderDuration)
	return pr
}

func (p *PrometheusRecorder) ObserveRebuild(d time.Duration, outcome Outcome) {
	if p == nil {
		return
	}
	p.rebuildDuration.Observe(d.Seconds())
	p.rebuildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetIndexSize(categories, posts int) {
	if p == nil {
		return
	}
	p.categories.Set(float64(categories))
	p.posts.Set(float64(posts))
}

func (p *PrometheusRecorder) AddSkipped(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.skipped.Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvent() {
	if p == nil {
		return
	}
	p.watchEvents.Inc()
}

func (p *PrometheusRecorder) ObserveRender(kind string, d time.Duration, outcome Outcome) {
	if p == nil {
		return
	}
	p.renderDuration.WithLabelValues(kind, string(outcome)).Observe(d.Seconds())
}
