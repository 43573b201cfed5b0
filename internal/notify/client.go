// client.go: paho-backed implementation of the broker client.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/pitchpod/pitchpod-go/internal/errors"
)

// client implements Client over paho.
type client struct {
	config         Config
	internalClient mqtt.Client
	mu             sync.Mutex
}

// NewClient creates a broker client from the given configuration.
func NewClient(cfg Config) (Client, error) {
	if cfg.Broker == "" {
		return nil, errors.Newf("broker URL is not configured").
			Component("notify").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	if cfg.DisconnectTimeout == 0 {
		cfg.DisconnectTimeout = DefaultConfig().DisconnectTimeout
	}
	return &client{config: cfg}, nil
}

// Connect establishes the broker connection. The broker hostname is
// resolved first so an unreachable DNS name fails fast instead of hanging
// in the paho retry loop.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return fmt.Errorf("invalid broker URL: %w", err)
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) {
				return dnsErr
			}
			return fmt.Errorf("failed to resolve hostname %s: %w", host, err)
		}
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.internalClient = mqtt.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return nil
}

// Publish sends a payload on the given topic, honoring the configured
// publish timeout and retain flag.
func (c *client) Publish(ctx context.Context, topic, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.IsConnected() {
		return errors.Newf("not connected to MQTT broker").
			Component("notify").
			Category(errors.CategoryNetwork).
			Context("topic", topic).
			Build()
	}

	token := c.internalClient.Publish(topic, 0, c.config.Retain, payload)
	if !token.WaitTimeout(c.config.PublishTimeout) {
		return errors.Newf("publish timeout").
			Component("notify").
			Category(errors.CategoryNetwork).
			Context("topic", topic).
			Build()
	}
	return token.Error()
}

// IsConnected reports whether the underlying client holds a connection.
func (c *client) IsConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the broker connection.
func (c *client) Disconnect() {
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	}
}

func (c *client) onConnect(mqtt.Client) {
	getLogger().Info("connected to MQTT broker", "broker", c.config.Broker)
}

func (c *client) onConnectionLost(_ mqtt.Client, err error) {
	getLogger().Warn("connection to MQTT broker lost",
		"broker", c.config.Broker,
		"error", err)
}
