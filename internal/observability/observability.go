// Package observability provides metrics and monitoring capabilities for the
// pitchpod application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pitchpod/pitchpod-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Ingest    *metrics.IngestMetrics
	Datastore *metrics.DatastoreMetrics
	Podholder *metrics.PodholderMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any metric collector fails to
// initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	ingestMetrics, err := metrics.NewIngestMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	podholderMetrics, err := metrics.NewPodholderMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create podholder metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Ingest:    ingestMetrics,
		Datastore: datastoreMetrics,
		Podholder: podholderMetrics,
	}, nil
}

// RegisterHandlers registers the Prometheus metrics handler on the mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
