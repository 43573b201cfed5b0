// endpoint.go: Prometheus-compatible telemetry endpoint.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/logging"
)

// shutdownTimeout bounds how long a graceful endpoint shutdown may take.
const shutdownTimeout = 5 * time.Second

// Endpoint handles all operations related to Prometheus-compatible telemetry.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint creates a new telemetry Endpoint using the provided settings
// and metrics. It returns an error if telemetry is not enabled in the
// settings.
func NewEndpoint(settings *conf.Settings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Telemetry.Enabled {
		return nil, fmt.Errorf("telemetry not enabled in settings")
	}

	return &Endpoint{
		listenAddress: settings.Telemetry.Listen,
		metrics:       metrics,
	}, nil
}

// Start initializes and runs the HTTP server for the telemetry endpoint.
// It listens for a quit signal to shut down gracefully.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	e.server = &http.Server{
		Addr:    e.listenAddress,
		Handler: mux,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logging.Info("Telemetry endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Telemetry HTTP server error", "error", err)
		}
	}()

	go e.gracefulShutdown(quitChan)
}

// gracefulShutdown waits for the quit signal and shuts down the server.
func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	<-quitChan
	logging.Info("Stopping telemetry server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		logging.Error("Telemetry server shutdown error", "error", err)
	}
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
