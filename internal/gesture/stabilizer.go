package gesture

import "time"

// Stabilizer parameters.
const (
	// HistorySize is the number of recent classifications kept.
	HistorySize = 5
	// StableWindow is how many of the most recent entries vote.
	StableWindow = 3
	// StableVotes is how many entries in the window must agree.
	StableVotes = 2
	// MinStableConfidence is the confidence an agreeing entry must exceed.
	MinStableConfidence = 0.75
)

// Entry is one recorded classification.
type Entry struct {
	Label      Label     `json:"type"`
	Confidence float64   `json:"confidence"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stabilizer debounces per-frame classifications. It keeps a fixed-size FIFO
// of recent entries and reports a gesture only once it wins a majority of the
// last StableWindow frames.
//
// The zero value is an empty history. Stabilizer is a plain value and is not
// safe for concurrent use; see Recognizer.
type Stabilizer struct {
	entries [HistorySize]Entry
	n       int
}

// Push appends c, evicting the oldest entry when the history is full.
// An empty message is replaced by the label.
func (s *Stabilizer) Push(c Classification, at time.Time) {
	msg := c.Message
	if msg == "" {
		msg = string(c.Label)
	}
	e := Entry{Label: c.Label, Confidence: c.Confidence, Message: msg, Timestamp: at}

	if s.n == HistorySize {
		copy(s.entries[:], s.entries[1:])
		s.n--
	}
	s.entries[s.n] = e
	s.n++
}

// Clear empties the history.
func (s *Stabilizer) Clear() {
	*s = Stabilizer{}
}

// Len returns the number of entries held.
func (s *Stabilizer) Len() int {
	return s.n
}

// History returns a copy of the entries, oldest first.
func (s *Stabilizer) History() []Entry {
	out := make([]Entry, s.n)
	copy(out, s.entries[:s.n])
	return out
}

// Stable returns the debounced gesture. ok is false while the history is
// shorter than StableWindow, when no label reaches StableVotes in the window,
// or when none of the agreeing entries is confident enough.
//
// At most one label can reach two votes out of three, but candidates are
// still visited most-recent-first so the result never depends on map order.
func (s *Stabilizer) Stable() (Entry, bool) {
	if s.n < StableWindow {
		return Entry{}, false
	}
	window := s.entries[s.n-StableWindow : s.n]

	counts := make(map[Label]int, StableWindow)
	for _, e := range window {
		counts[e.Label]++
	}

	for i := len(window) - 1; i >= 0; i-- {
		label := window[i].Label
		if counts[label] < StableVotes {
			continue
		}
		for _, e := range window {
			if e.Label == label && e.Confidence > MinStableConfidence {
				return e, true
			}
		}
		// Visit each candidate label once.
		counts[label] = 0
	}
	return Entry{}, false
}
