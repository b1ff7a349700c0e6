package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Event is a recorded change of the stable gesture. To is empty when the
// gesture was dropped.
type Event struct {
	ID         int64         `json:"id"`
	From       gesture.Label `json:"from"`
	To         gesture.Label `json:"to"`
	Confidence float64       `json:"confidence"`
	Message    string        `json:"message"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventFromGesture converts a pipeline event for storage.
func EventFromGesture(e gesture.Event) *Event {
	return &Event{
		From:       e.From,
		To:         e.To,
		Confidence: e.Confidence,
		Message:    e.Message,
		OccurredAt: e.At,
	}
}

// EventRepository appends to and reads the gesture event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append inserts e and sets its ID.
func (r *EventRepository) Append(e *Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO gesture_events (from_gesture, to_gesture, confidence, message, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(e.From), string(e.To), e.Confidence, e.Message, e.OccurredAt.UTC(),
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// Recent returns up to limit events, newest first. A gesture filter, when
// non-empty, keeps only events that changed to that gesture.
func (r *EventRepository) Recent(limit int, to gesture.Label) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, from_gesture, to_gesture, confidence, message, occurred_at FROM gesture_events`
	args := []any{}
	if to != "" {
		query += ` WHERE to_gesture = ?`
		args = append(args, string(to))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var from, toLabel string
		if err := rows.Scan(&e.ID, &from, &toLabel, &e.Confidence, &e.Message, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.From = gesture.Label(from)
		e.To = gesture.Label(toLabel)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Prune deletes all but the newest keep events and returns how many were removed.
func (r *EventRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM gesture_events WHERE id NOT IN (
			SELECT id FROM gesture_events ORDER BY id DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
