// Package mqtt publishes gesture change events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrNotConnected is returned by Publish before Connect succeeds or after Close.
var ErrNotConnected = errors.New("mqtt: not connected to broker")

// Config holds the configuration for the MQTT publisher.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
	Retain   bool

	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 10 * time.Second
	}
	if c.DisconnectTimeout <= 0 {
		c.DisconnectTimeout = 250 * time.Millisecond
	}
}

// Publisher sends gesture events to the configured topic. The reported
// gesture is published retained under <topic>/current when Retain is set.
type Publisher struct {
	config    Config
	client    paho.Client
	log       logrus.FieldLogger
	newClient func(*paho.ClientOptions) paho.Client
}

// NewPublisher creates a Publisher. Connect must be called before Publish.
func NewPublisher(config Config, log logrus.FieldLogger) *Publisher {
	config.setDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{
		config:    config,
		log:       log.WithField("component", "mqtt"),
		newClient: paho.NewClient,
	}
}

// Connect dials the broker. The paho client reconnects on its own after a
// connection loss.
func (p *Publisher) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(p.config.Broker)
	opts.SetClientID(p.config.ClientID)
	opts.SetUsername(p.config.Username)
	opts.SetPassword(p.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(p.config.ConnectTimeout)
	opts.SetOnConnectHandler(func(paho.Client) {
		p.log.WithField("broker", p.config.Broker).Info("Connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.log.WithError(err).WithField("broker", p.config.Broker).Warn("Connection to MQTT broker lost")
	})

	client := p.newClient(opts)
	token := client.Connect()
	if err := wait(ctx, token, p.config.ConnectTimeout); err != nil {
		return fmt.Errorf("connect to %s: %w", p.config.Broker, err)
	}

	p.client = client
	return nil
}

// Publish sends e as JSON.
func (p *Publisher) Publish(ctx context.Context, e gesture.Event) error {
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(gesture.NewView(e))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	token := p.client.Publish(p.config.Topic, p.config.QoS, false, payload)
	if err := wait(ctx, token, p.config.PublishTimeout); err != nil {
		return fmt.Errorf("publish to %s: %w", p.config.Topic, err)
	}

	if p.config.Retain {
		token = p.client.Publish(p.config.Topic+"/current", p.config.QoS, true, []byte(e.To))
		if err := wait(ctx, token, p.config.PublishTimeout); err != nil {
			return fmt.Errorf("publish retained state: %w", err)
		}
	}

	p.log.WithFields(logrus.Fields{"gesture": e.To, "topic": p.config.Topic}).Debug("Published gesture event")
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *Publisher) IsConnected() bool {
	return p.client != nil && p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client != nil {
		p.client.Disconnect(uint(p.config.DisconnectTimeout.Milliseconds()))
		p.client = nil
	}
	return nil
}

// wait blocks until token completes, ctx is done or timeout elapses.
func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("timeout")
	}
}
