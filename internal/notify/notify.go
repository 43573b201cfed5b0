// Package notify publishes import summaries over MQTT so dashboards on the
// pitch-side network can react to committed imports. Disabled by default.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/errors"
	"github.com/pitchpod/pitchpod-go/internal/logging"
)

// Client is the broker surface the notifier needs.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the broker.
	Publish(ctx context.Context, topic, payload string) error

	// IsConnected reports whether the client currently holds a connection.
	IsConnected() bool

	// Disconnect closes the connection to the broker.
	Disconnect()
}

// Config holds the broker connection parameters.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	Retain   bool

	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable timeouts.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// ConfigFromSettings maps the notify section of the settings onto a Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := DefaultConfig()
	cfg.Broker = settings.MQTT.Broker
	cfg.ClientID = settings.Main.Name
	cfg.Username = settings.MQTT.Username
	cfg.Password = settings.MQTT.Password
	cfg.Topic = settings.MQTT.Topic
	cfg.Retain = settings.MQTT.Retain
	return cfg
}

var (
	notifyLogger *slog.Logger
	loggerOnce   sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		var err error
		notifyLogger, _, err = logging.NewFileLogger("logs/notify.log", "notify", slog.LevelInfo)
		if err != nil || notifyLogger == nil {
			notifyLogger = slog.Default().With("service", "notify")
		}
	})
	return notifyLogger
}

// ImportSummary is the payload published after a committed import.
type ImportSummary struct {
	SessionID string `json:"session_id"`
	Inserted  int    `json:"inserted"`
	Dropped   int    `json:"dropped"`
}

// Notifier publishes import summaries on a fixed topic.
type Notifier struct {
	client Client
	topic  string
}

// NewNotifier wraps a connected client and topic. Returns an error when the
// topic is empty.
func NewNotifier(client Client, topic string) (*Notifier, error) {
	if topic == "" {
		return nil, errors.Newf("notify topic is not configured").
			Component("notify").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &Notifier{client: client, topic: topic}, nil
}

// ImportCommitted publishes a summary for a committed import. A publish
// failure is reported but carries no local consequence; the import itself
// has already committed.
func (n *Notifier) ImportCommitted(ctx context.Context, summary ImportSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return errors.New(err).
			Component("notify").
			Category(errors.CategoryGeneric).
			Context("session_id", summary.SessionID).
			Build()
	}

	topic := fmt.Sprintf("%s/%s", n.topic, summary.SessionID)
	if err := n.client.Publish(ctx, topic, string(payload)); err != nil {
		return err
	}

	getLogger().Info("import summary published",
		"topic", topic,
		"session_id", summary.SessionID,
		"inserted", summary.Inserted,
		"dropped", summary.Dropped)
	return nil
}
