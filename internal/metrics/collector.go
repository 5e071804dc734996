// Package metrics exposes export and kernel activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records export passes and kernel requests. It satisfies
// export.Recorder and kernel.Observer.
type Collector struct {
	exportsTotal    *prometheus.CounterVec
	exportDuration  *prometheus.HistogramVec
	exportArtifacts *prometheus.HistogramVec
	exportTriangles *prometheus.CounterVec

	kernelRequests *prometheus.CounterVec
}

// NewCollector registers the metrics on reg under namespace.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	c := &Collector{}

	c.exportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of export passes",
		},
		[]string{"format", "status"},
	)

	c.exportDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Export pass duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"format"},
	)

	c.exportArtifacts = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_artifacts",
			Help:      "Artifacts produced per successful export pass",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		},
		[]string{"format"},
	)

	c.exportTriangles = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_triangles_total",
			Help:      "Triangles written by successful export passes",
		},
		[]string{"format"},
	)

	c.kernelRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kernel_requests_total",
			Help:      "Geometry kernel request attempts by HTTP status",
		},
		[]string{"status"},
	)

	return c
}

// ExportFinished records one export pass.
func (c *Collector) ExportFinished(format, status string, d time.Duration, artifacts, triangles int) {
	c.exportsTotal.WithLabelValues(format, status).Inc()
	c.exportDuration.WithLabelValues(format).Observe(d.Seconds())
	if status != "ok" {
		return
	}
	c.exportArtifacts.WithLabelValues(format).Observe(float64(artifacts))
	c.exportTriangles.WithLabelValues(format).Add(float64(triangles))
}

// KernelRequest records one kernel request attempt.
func (c *Collector) KernelRequest(status string) {
	c.kernelRequests.WithLabelValues(status).Inc()
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
