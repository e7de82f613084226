package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	renderDuration *prom.HistogramVec
	renders        *prom.CounterVec
	linkErrors     *prom.CounterVec
	searchQueries  prom.Counter
	exportDuration prom.Histogram
	exportedFiles  prom.Counter
	exportOutcome  *prom.CounterVec
	httpDuration   *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pergament",
			Name:      "render_duration_seconds",
			Help:      "Duration of single-entity Markdown renders",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"})
		pr.renders = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pergament",
			Name:      "renders_total",
			Help:      "Rendered entities by kind",
		}, []string{"kind"})
		pr.linkErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pergament",
			Name:      "link_errors_total",
			Help:      "Broken or unresolvable content links found during rendering",
		}, []string{"kind"})
		pr.searchQueries = prom.NewCounter(prom.CounterOpts{
			Namespace: "pergament",
			Name:      "search_queries_total",
			Help:      "Search queries served",
		})
		pr.exportDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pergament",
			Name:      "export_duration_seconds",
			Help:      "Total static export duration",
			Buckets:   prom.DefBuckets,
		})
		pr.exportedFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: "pergament",
			Name:      "exported_files_total",
			Help:      "Files written by the static exporter",
		})
		pr.exportOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pergament",
			Name:      "export_outcomes_total",
			Help:      "Export outcomes by final status",
		}, []string{"outcome"})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pergament",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and status",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "status"})
		reg.MustRegister(pr.renderDuration, pr.renders, pr.linkErrors, pr.searchQueries, pr.exportDuration, pr.exportedFiles, pr.exportOutcome, pr.httpDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRenderDuration(kind string, d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRender(kind string) {
	if p == nil || p.renders == nil {
		return
	}
	p.renders.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncLinkErrors(kind string, n int) {
	if p == nil || p.linkErrors == nil || n <= 0 {
		return
	}
	p.linkErrors.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) IncSearchQuery() {
	if p == nil || p.searchQueries == nil {
		return
	}
	p.searchQueries.Inc()
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	if p == nil || p.exportDuration == nil {
		return
	}
	p.exportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExportedFiles(n int) {
	if p == nil || p.exportedFiles == nil || n <= 0 {
		return
	}
	p.exportedFiles.Add(float64(n))
}

func (p *PrometheusRecorder) IncExportOutcome(outcome string) {
	if p == nil || p.exportOutcome == nil {
		return
	}
	p.exportOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, statusText(status)).Observe(d.Seconds())
}

func statusText(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
