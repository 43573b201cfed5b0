// datastore.go: Prometheus metrics for datastore operations.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for datastore operations.
type DatastoreMetrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TransactionsTotal *prometheus.CounterVec
	registry          *prometheus.Registry
}

// NewDatastoreMetrics creates and registers new datastore metrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize datastore metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() error {
	m.OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datastore_operations_total",
		Help: "Total number of datastore operations, by operation and status",
	}, []string{"operation", "status"})

	m.OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datastore_operation_duration_seconds",
		Help:    "Duration of datastore operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"operation"})

	m.TransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datastore_transactions_total",
		Help: "Total number of replace-snapshot transactions, by outcome",
	}, []string{"outcome"})

	return nil
}

// RecordOperation records a datastore operation with its status and duration.
func (m *DatastoreMetrics) RecordOperation(operation, status string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTransaction records the outcome of a replace-snapshot transaction.
func (m *DatastoreMetrics) RecordTransaction(outcome string) {
	m.TransactionsTotal.WithLabelValues(outcome).Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.OperationsTotal.Collect(ch)
	m.OperationDuration.Collect(ch)
	m.TransactionsTotal.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.OperationsTotal.Describe(ch)
	m.OperationDuration.Describe(ch)
	m.TransactionsTotal.Describe(ch)
}
