// Package metrics exposes Prometheus instrumentation for pinch-server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "pinch"

// Result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector records analysis and archive activity on its own registry so
// several collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	analysisStreams  prometheus.Histogram
	archivedRuns     *prometheus.CounterVec
}

// New creates a collector. An empty namespace uses DefaultNamespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total pinch analyses by source (request, problem) and result.",
		}, []string{"source", "result"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time spent computing a heat cascade in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs .. ~1.6s
		}),
		analysisStreams: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "streams",
			Help:      "Number of streams per analysed network.",
			Buckets:   []float64{2, 4, 8, 16, 32, 64, 128},
		}),
		archivedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "saves_total",
			Help:      "Total run archive writes by result.",
		}, []string{"result"}),
	}

	c.registry.MustRegister(c.analyses, c.analysisDuration, c.analysisStreams, c.archivedRuns)
	return c
}

// ObserveAnalysis records one analysis of a network with the given number
// of streams
func (c *Collector) ObserveAnalysis(source string, streams int, elapsed time.Duration, err error) {
	c.analyses.WithLabelValues(source, result(err)).Inc()
	if err != nil {
		return
	}
	c.analysisDuration.Observe(elapsed.Seconds())
	c.analysisStreams.Observe(float64(streams))
}

// ObserveArchive records one attempt to save a run
func (c *Collector) ObserveArchive(err error) {
	c.archivedRuns.WithLabelValues(result(err)).Inc()
}

// Registry returns the registry holding the collector's metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
