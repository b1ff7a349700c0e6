package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	opts         *paho.ClientOptions
	connected    bool
	connectToken paho.Token
	publishErr   error
	messages     []published
	disconnects  int
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectToken != nil {
		return c.connectToken
	}
	c.connected = true
	return newToken(nil)
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnects++
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return newToken(c.publishErr)
	}
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case string:
		b = []byte(p)
	}
	c.messages = append(c.messages, published{topic, qos, retained, b})
	return newToken(nil)
}

func (c *fakeClient) Subscribe(string, byte, paho.MessageHandler) paho.Token {
	return newToken(nil)
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return newToken(nil)
}

func (c *fakeClient) Unsubscribe(...string) paho.Token { return newToken(nil) }

func (c *fakeClient) AddRoute(string, paho.MessageHandler) {}

func (c *fakeClient) OptionsReader() paho.ClientOptionsReader {
	return paho.NewOptionsReader(c.opts)
}

func newTestPublisher(t *testing.T, cfg Config, client *fakeClient) *Publisher {
	t.Helper()
	log, _ := test.NewNullLogger()
	p := NewPublisher(cfg, log)
	p.newClient = func(opts *paho.ClientOptions) paho.Client {
		client.opts = opts
		return client
	}
	return p
}

var changed = gesture.Event{
	From:       gesture.LabelOpen,
	To:         gesture.LabelLove,
	Confidence: 0.95,
	Message:    "LOVE",
	At:         time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
}

func TestPublisher_Connect(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(t, Config{
		Broker:   "tcp://localhost:1883",
		ClientID: "mudra-test",
		Username: "user",
		Topic:    "mudra/gesture",
	}, client)

	assert.False(t, p.IsConnected())
	require.NoError(t, p.Connect(context.Background()))
	assert.True(t, p.IsConnected())

	opts := client.OptionsReader()
	require.Len(t, opts.Servers(), 1)
	assert.Equal(t, "localhost:1883", opts.Servers()[0].Host)
	assert.Equal(t, "mudra-test", opts.ClientID())
	assert.Equal(t, "user", opts.Username())
	assert.True(t, opts.AutoReconnect())

	require.NoError(t, p.Close())
	assert.False(t, p.IsConnected())
	assert.Equal(t, 1, client.disconnects)
}

func TestPublisher_ConnectFailure(t *testing.T) {
	client := &fakeClient{connectToken: newToken(errors.New("connection refused"))}
	p := newTestPublisher(t, Config{Broker: "tcp://localhost:1883", Topic: "t"}, client)

	err := p.Connect(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, p.IsConnected())
}

func TestPublisher_ConnectHonoursContext(t *testing.T) {
	client := &fakeClient{connectToken: pendingToken()}
	p := newTestPublisher(t, Config{Broker: "tcp://localhost:1883", Topic: "t"}, client)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Connect(ctx), context.DeadlineExceeded)
}

func TestPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(t, Config{Broker: "tcp://localhost:1883", Topic: "mudra/gesture", QoS: 1}, client)
	require.NoError(t, p.Connect(context.Background()))

	require.NoError(t, p.Publish(context.Background(), changed))

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "mudra/gesture", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.False(t, msg.retained)

	var got gesture.View
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, gesture.LabelOpen, got.From)
	assert.Equal(t, gesture.LabelLove, got.To)
	assert.Equal(t, "LOVE", got.Message)
	assert.Equal(t, gesture.LevelHigh, got.Level)
	assert.Equal(t, `Word "LOVE" detected!`, got.Display)
	assert.True(t, changed.At.Equal(got.At))
}

func TestPublisher_PublishRetainsCurrent(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(t, Config{Broker: "tcp://localhost:1883", Topic: "mudra/gesture", Retain: true}, client)
	require.NoError(t, p.Connect(context.Background()))

	require.NoError(t, p.Publish(context.Background(), changed))

	require.Len(t, client.messages, 2)
	assert.Equal(t, "mudra/gesture/current", client.messages[1].topic)
	assert.True(t, client.messages[1].retained)
	assert.Equal(t, "love", string(client.messages[1].payload))
}

func TestPublisher_PublishErrors(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		p := newTestPublisher(t, Config{Topic: "t"}, &fakeClient{})
		assert.ErrorIs(t, p.Publish(context.Background(), changed), ErrNotConnected)
	})

	t.Run("broker rejects", func(t *testing.T) {
		client := &fakeClient{}
		p := newTestPublisher(t, Config{Broker: "tcp://localhost:1883", Topic: "t"}, client)
		require.NoError(t, p.Connect(context.Background()))

		client.publishErr = errors.New("not authorized")
		assert.ErrorContains(t, p.Publish(context.Background(), changed), "not authorized")
	})
}
