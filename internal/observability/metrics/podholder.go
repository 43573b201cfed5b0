// podholder.go: Prometheus metrics for podholder upload operations.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PodholderMetrics contains Prometheus metrics for uploads to the podholder
// base station.
type PodholderMetrics struct {
	UploadsTotal   *prometheus.CounterVec
	UploadBytes    prometheus.Histogram
	UploadDuration prometheus.Histogram
	registry       *prometheus.Registry
}

// NewPodholderMetrics creates and registers new podholder metrics.
func NewPodholderMetrics(registry *prometheus.Registry) (*PodholderMetrics, error) {
	m := &PodholderMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize podholder metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register podholder metrics: %w", err)
	}
	return m, nil
}

func (m *PodholderMetrics) initMetrics() error {
	m.UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "podholder_uploads_total",
		Help: "Total number of document uploads to the podholder, by status",
	}, []string{"status"})

	m.UploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "podholder_upload_size_bytes",
		Help:    "Size of uploaded documents in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 2, 14),
	})

	m.UploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "podholder_upload_duration_seconds",
		Help:    "Duration of document uploads in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	return nil
}

// RecordUpload records an upload attempt with its status, size and duration.
func (m *PodholderMetrics) RecordUpload(status string, sizeBytes int, duration time.Duration) {
	m.UploadsTotal.WithLabelValues(status).Inc()
	m.UploadBytes.Observe(float64(sizeBytes))
	m.UploadDuration.Observe(duration.Seconds())
}

// Collect implements the prometheus.Collector interface.
func (m *PodholderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.UploadsTotal.Collect(ch)
	m.UploadBytes.Collect(ch)
	m.UploadDuration.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *PodholderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.UploadsTotal.Describe(ch)
	m.UploadBytes.Describe(ch)
	m.UploadDuration.Describe(ch)
}
