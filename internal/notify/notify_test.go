package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchpod/pitchpod-go/internal/conf"
)

// fakeClient records publishes without a broker.
type fakeClient struct {
	connected bool
	topics    []string
	payloads  []string
	publishFn func() error
}

func (f *fakeClient) Connect(context.Context) error { f.connected = true; return nil }
func (f *fakeClient) IsConnected() bool             { return f.connected }
func (f *fakeClient) Disconnect()                   { f.connected = false }

func (f *fakeClient) Publish(_ context.Context, topic, payload string) error {
	if f.publishFn != nil {
		if err := f.publishFn(); err != nil {
			return err
		}
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestNotifierPublishesSummary(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{}
	notifier, err := NewNotifier(fake, "pitchpod/sessions")
	require.NoError(t, err)

	err = notifier.ImportCommitted(context.Background(), ImportSummary{
		SessionID: "s1",
		Inserted:  120,
		Dropped:   3,
	})
	require.NoError(t, err)

	require.Len(t, fake.topics, 1)
	assert.Equal(t, "pitchpod/sessions/s1", fake.topics[0])

	var got ImportSummary
	require.NoError(t, json.Unmarshal([]byte(fake.payloads[0]), &got))
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, 120, got.Inserted)
	assert.Equal(t, 3, got.Dropped)
}

func TestNewNotifierRequiresTopic(t *testing.T) {
	t.Parallel()

	_, err := NewNotifier(&fakeClient{}, "")
	require.Error(t, err)
}

func TestNewClientRequiresBroker(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.Error(t, err)

	client, err := NewClient(Config{Broker: "tcp://127.0.0.1:1883"})
	require.NoError(t, err)
	assert.False(t, client.IsConnected())
}

func TestPublishWithoutConnection(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Broker: "tcp://127.0.0.1:1883"})
	require.NoError(t, err)

	err = client.Publish(context.Background(), "pitchpod/sessions/s1", "{}")
	require.Error(t, err)
}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Main.Name = "pitchpod-bench"
	settings.MQTT.Broker = "tcp://broker:1883"
	settings.MQTT.Topic = "pitchpod/sessions"
	settings.MQTT.Username = "coach"
	settings.MQTT.Retain = true

	cfg := ConfigFromSettings(settings)
	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, "pitchpod-bench", cfg.ClientID)
	assert.Equal(t, "pitchpod/sessions", cfg.Topic)
	assert.Equal(t, "coach", cfg.Username)
	assert.True(t, cfg.Retain)
	assert.Equal(t, DefaultConfig().ConnectTimeout, cfg.ConnectTimeout)
}
