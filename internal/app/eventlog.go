package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// pruneEvery is how many appends pass between trims of the event log.
const pruneEvery = 100

// EventLog records gesture changes in the store and keeps the log bounded.
type EventLog struct {
	events  *store.EventRepository
	keep    int
	log     logrus.FieldLogger
	appends int
}

// NewEventLog returns an EventLog keeping the newest keep events. keep of
// zero keeps everything.
func NewEventLog(events *store.EventRepository, keep int, log logrus.FieldLogger) *EventLog {
	return &EventLog{
		events: events,
		keep:   keep,
		log:    log.WithField("component", "events"),
	}
}

func (l *EventLog) Name() string { return "events" }

// Handle appends e. It is called from the bus goroutine only.
func (l *EventLog) Handle(_ context.Context, e gesture.Event) error {
	if err := l.events.Append(store.EventFromGesture(e)); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	l.appends++
	if l.keep > 0 && l.appends%pruneEvery == 0 {
		return l.Prune()
	}
	return nil
}

// Prune trims the log to the configured size.
func (l *EventLog) Prune() error {
	if l.keep <= 0 {
		return nil
	}
	n, err := l.events.Prune(l.keep)
	if err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	if n > 0 {
		l.log.WithField("removed", n).Debug("Pruned gesture events")
	}
	return nil
}
