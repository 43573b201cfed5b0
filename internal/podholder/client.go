// Package podholder talks to the base station (an ESP32 on the pitch-side
// network) and drives session synchronization to it.
package podholder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/errors"
	"github.com/pitchpod/pitchpod-go/internal/httpclient"
	"github.com/pitchpod/pitchpod-go/internal/logging"
	"github.com/pitchpod/pitchpod-go/internal/observability/metrics"
)

// uploadPath is the firmware's CSV intake endpoint. The filename travels as
// a query parameter; the body is the raw document.
const uploadPath = "/upload"

// healthPath answers a bare 200 when the base station is reachable.
const healthPath = "/health"

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		var err error
		serviceLogger, _, err = logging.NewFileLogger("logs/podholder.log", "podholder", slog.LevelInfo)
		if err != nil || serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "podholder")
		}
	})
	return serviceLogger
}

// Client uploads documents to one base station.
type Client struct {
	endpoint string
	http     *httpclient.Client
	metrics  *metrics.PodholderMetrics
}

// NewClient builds a client from settings. Fails when the podholder
// integration is disabled or the endpoint is missing.
func NewClient(settings *conf.Settings) (*Client, error) {
	if !settings.Podholder.Enabled {
		return nil, errors.Newf("podholder integration is disabled in settings").
			Component("podholder").
			Category(errors.CategoryConfiguration).
			Build()
	}
	endpoint := strings.TrimRight(settings.Podholder.Endpoint, "/")
	if endpoint == "" {
		return nil, errors.Newf("podholder endpoint is not configured").
			Component("podholder").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return &Client{
		endpoint: endpoint,
		http: httpclient.New(&httpclient.Config{
			DefaultTimeout: settings.PodholderTimeout(),
		}),
	}, nil
}

// SetMetrics attaches upload metrics. Safe to leave unset.
func (c *Client) SetMetrics(m *metrics.PodholderMetrics) {
	c.metrics = m
}

// Upload sends one document to the base station. Failures are
// network-category and leave nothing behind on the caller's side; the
// firmware replaces a file of the same name wholesale.
func (c *Client) Upload(ctx context.Context, filename, content string) error {
	start := time.Now()
	err := c.upload(ctx, filename, content)
	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordUpload(status, len(content), time.Since(start))
	}
	return err
}

func (c *Client) upload(ctx context.Context, filename, content string) error {
	target := fmt.Sprintf("%s%s?filename=%s", c.endpoint, uploadPath, url.QueryEscape(filename))

	resp, err := c.http.Post(ctx, target, "text/csv", content)
	if err != nil {
		return errors.New(err).
			Component("podholder").
			Category(errors.CategoryNetwork).
			Context("filename", filename).
			Context("operation", "upload").
			Build()
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Newf("podholder rejected upload: %s", resp.Status).
			Component("podholder").
			Category(errors.CategoryNetwork).
			Context("filename", filename).
			Context("status_code", resp.StatusCode).
			Build()
	}

	getLogger().Info("document uploaded",
		"filename", filename,
		"bytes", len(content),
		"status", resp.StatusCode)
	return nil
}

// Ping checks base station reachability.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.Get(ctx, c.endpoint+healthPath)
	if err != nil {
		return errors.New(err).
			Component("podholder").
			Category(errors.CategoryNetwork).
			Context("operation", "ping").
			Build()
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("podholder health check returned %s", resp.Status).
			Component("podholder").
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Build()
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() {
	c.http.Close()
}
