// Package metrics provides custom Prometheus metrics for the pitchpod
// ingestion and sync components.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains all Prometheus metrics related to CSV import.
type IngestMetrics struct {
	RowsParsed     prometheus.Counter
	RowsDropped    *prometheus.CounterVec
	RowsInserted   prometheus.Counter
	ImportsTotal   *prometheus.CounterVec
	ImportErrors   *prometheus.CounterVec
	ImportDuration prometheus.Histogram
	registry       *prometheus.Registry
}

// NewIngestMetrics creates a new instance of IngestMetrics and registers the
// metrics on the provided registry.
func NewIngestMetrics(registry *prometheus.Registry) (*IngestMetrics, error) {
	m := &IngestMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize ingest metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register ingest metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for IngestMetrics.
func (m *IngestMetrics) initMetrics() error {
	m.RowsParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_rows_parsed_total",
		Help: "Total number of candidate rows parsed from capture files",
	})

	m.RowsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_dropped_total",
		Help: "Total number of rows dropped during import, by reason",
	}, []string{"reason"})

	m.RowsInserted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_rows_inserted_total",
		Help: "Total number of resolved readings inserted into the store",
	})

	m.ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_imports_total",
		Help: "Total number of session imports, by status",
	}, []string{"status"})

	m.ImportErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_import_errors_total",
		Help: "Total number of failed session imports, by pipeline stage",
	}, []string{"stage"})

	m.ImportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_import_duration_seconds",
		Help:    "Duration of session imports in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	return nil
}

// IncrementRowsParsed increments the count of parsed candidate rows.
func (m *IngestMetrics) IncrementRowsParsed() {
	m.RowsParsed.Inc()
}

// IncrementRowsDropped increments the count of dropped rows for a reason.
func (m *IngestMetrics) IncrementRowsDropped(reason string) {
	m.RowsDropped.WithLabelValues(reason).Inc()
}

// AddRowsInserted adds the count of inserted readings after a commit.
func (m *IngestMetrics) AddRowsInserted(count int) {
	m.RowsInserted.Add(float64(count))
}

// RecordImport records a finished import with its status and duration.
func (m *IngestMetrics) RecordImport(status string, duration time.Duration) {
	m.ImportsTotal.WithLabelValues(status).Inc()
	m.ImportDuration.Observe(duration.Seconds())
}

// RecordImportError records a failed import by pipeline stage.
func (m *IngestMetrics) RecordImportError(stage string) {
	m.ImportErrors.WithLabelValues(stage).Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RowsParsed.Collect(ch)
	m.RowsDropped.Collect(ch)
	m.RowsInserted.Collect(ch)
	m.ImportsTotal.Collect(ch)
	m.ImportErrors.Collect(ch)
	m.ImportDuration.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RowsParsed.Describe(ch)
	m.RowsDropped.Describe(ch)
	m.RowsInserted.Describe(ch)
	m.ImportsTotal.Describe(ch)
	m.ImportErrors.Describe(ch)
	m.ImportDuration.Describe(ch)
}
