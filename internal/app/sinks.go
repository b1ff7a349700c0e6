package app

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
)

// DefaultBusSize is the number of gesture events that may wait for delivery.
const DefaultBusSize = 64

// ErrBusFull is recorded when an event is dropped because sinks are behind.
var ErrBusFull = errors.New("event bus full")

// Sink consumes gesture change events.
type Sink interface {
	Name() string
	Handle(ctx context.Context, e gesture.Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, e gesture.Event) error
}

func (s SinkFunc) Name() string { return s.SinkName }

func (s SinkFunc) Handle(ctx context.Context, e gesture.Event) error {
	return s.Fn(ctx, e)
}

// Publisher is implemented by outbound transports such as the MQTT client.
type Publisher interface {
	Publish(ctx context.Context, e gesture.Event) error
}

// PublisherSink delivers events through a Publisher.
func PublisherSink(name string, p Publisher) Sink {
	return SinkFunc{SinkName: name, Fn: p.Publish}
}

// bus hands events from the capture loop to the sinks on its own goroutine so
// slow sinks never stall frame processing. Sinks see events in order.
type bus struct {
	ch      chan gesture.Event
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	sinks []Sink
}

func newBus(size int, log logrus.FieldLogger, m *metrics.Metrics) *bus {
	if size <= 0 {
		size = DefaultBusSize
	}
	return &bus{
		ch:      make(chan gesture.Event, size),
		log:     log,
		metrics: m,
	}
}

func (b *bus) add(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// publish enqueues e without blocking.
func (b *bus) publish(e gesture.Event) {
	select {
	case b.ch <- e:
	default:
		b.metrics.ObservePublish("bus", ErrBusFull)
		b.log.WithField("gesture", e.To).Warn("Dropping gesture event, sinks are behind")
	}
}

// run delivers events until ctx is done.
func (b *bus) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.ch:
			b.deliver(ctx, e)
		}
	}
}

func (b *bus) deliver(ctx context.Context, e gesture.Event) {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, s := range sinks {
		err := s.Handle(ctx, e)
		b.metrics.ObservePublish(s.Name(), err)
		if err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"sink":    s.Name(),
				"gesture": e.To,
			}).Warn("Gesture event delivery failed")
		}
	}
}
