package gesture

import (
	"sync"
	"time"
)

// MinAcceptConfidence is the confidence a base result needs before it is
// recorded in the history.
const MinAcceptConfidence = 0.75

// State is everything the pipeline carries between frames. It is a value;
// Step returns the next state instead of mutating shared fields.
type State struct {
	history Stabilizer
	current Entry
	active  bool
}

// History returns the recorded entries, oldest first.
func (s State) History() []Entry {
	return s.history.History()
}

// Current returns the gesture currently being reported, if any.
func (s State) Current() (Entry, bool) {
	return s.current, s.active
}

// Result is the outcome of one frame.
type Result struct {
	// Hand is false when the frame carried no hand.
	Hand bool
	// Frame is this frame's own classification. Label unknown means the
	// frame was seen but nothing was recognized.
	Frame Classification
	// Stable is the debounced gesture; valid only when Settled is true.
	// Settled false is the "no gesture" signal.
	Stable  Entry
	Settled bool
	// Changed is set when the reported gesture differs from the previous frame's.
	Changed bool
	Event   Event
}

// Event announces a change of the reported gesture. To is empty when the
// gesture was dropped.
type Event struct {
	From       Label     `json:"from"`
	To         Label     `json:"to"`
	Confidence float64   `json:"confidence"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// Pipeline wires the two classifiers in their fixed order. It holds no
// per-frame state.
type Pipeline struct {
	Sign Classifier
	Base Classifier
}

// NewPipeline returns a Pipeline using the standard sign and base classifiers.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Sign: NewSignClassifier(),
		Base: NewBaseClassifier(),
	}
}

// Step runs one frame. A nil observation means no hand was detected: the
// history is cleared and no classifier runs.
func (p *Pipeline) Step(s State, obs *Observation, at time.Time) (State, Result) {
	prev, prevActive := s.current, s.active
	var res Result

	switch {
	case obs == nil:
		s.history.Clear()
		s.active = false

	default:
		res.Hand = true
		sign := p.Sign.Classify(*obs)
		if sign.Recognized() && sign.Confidence > MinSignConfidence {
			res.Frame = sign
			s = s.record(sign, at)
			break
		}

		base := p.Base.Classify(*obs)
		res.Frame = base
		if base.Confidence > MinAcceptConfidence {
			s = s.record(base, at)
		} else {
			s.active = false
		}
	}

	if s.active {
		res.Stable, res.Settled = s.current, true
	}

	switch {
	case s.active != prevActive:
		res.Changed = true
	case s.active && s.current.Label != prev.Label:
		res.Changed = true
	}
	if res.Changed {
		res.Event = Event{At: at}
		if prevActive {
			res.Event.From = prev.Label
		}
		if s.active {
			res.Event.To = s.current.Label
			res.Event.Confidence = s.current.Confidence
			res.Event.Message = s.current.Message
		}
	}
	return s, res
}

// record pushes c and reports the stable entry of the resulting history.
// When the window no longer agrees the gesture is dropped.
func (s State) record(c Classification, at time.Time) State {
	s.history.Push(c, at)
	if e, ok := s.history.Stable(); ok {
		s.current, s.active = e, true
	} else {
		s.active = false
	}
	return s
}

// Recognizer runs a Pipeline over a stream of frames and owns its State.
// It is safe for concurrent use; frames are processed one at a time.
type Recognizer struct {
	mu       sync.Mutex
	pipeline *Pipeline
	state    State
	now      func() time.Time
	handlers []func(Event)

	// pending holds changes not yet handed to handlers, in frame order.
	pending    []Event
	delivering bool
}

// RecognizerOption configures a Recognizer.
type RecognizerOption func(*Recognizer)

// WithClock overrides the time source used to stamp history entries.
func WithClock(now func() time.Time) RecognizerOption {
	return func(r *Recognizer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithPipeline replaces the default classifier pipeline.
func WithPipeline(p *Pipeline) RecognizerOption {
	return func(r *Recognizer) {
		if p != nil {
			r.pipeline = p
		}
	}
}

// NewRecognizer creates a Recognizer with an empty history.
func NewRecognizer(opts ...RecognizerOption) *Recognizer {
	r := &Recognizer{
		pipeline: NewPipeline(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers fn to be called with every gesture-change event.
// Handlers run outside the lock and see events in the order the frames were
// processed. When frames arrive concurrently, an event may be delivered by
// whichever Observe call is already delivering, so a handler must not block
// on another Observe.
func (r *Recognizer) OnChange(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, fn)
}

// Observe processes one frame; pass nil when no hand was detected.
func (r *Recognizer) Observe(obs *Observation) Result {
	r.mu.Lock()
	next, res := r.pipeline.Step(r.state, obs, r.now())
	r.state = next
	if res.Changed {
		r.pending = append(r.pending, res.Event)
	}
	r.deliver()
	return res
}

// deliver drains pending events to the handlers. It is called with r.mu held
// and returns with it released. Only one caller drains at a time.
func (r *Recognizer) deliver() {
	if r.delivering {
		r.mu.Unlock()
		return
	}
	r.delivering = true
	for len(r.pending) > 0 {
		e := r.pending[0]
		r.pending = r.pending[1:]
		handlers := r.handlers
		r.mu.Unlock()

		for _, fn := range handlers {
			fn(e)
		}
		r.mu.Lock()
	}
	r.delivering = false
	r.mu.Unlock()
}

// Current returns the gesture currently being reported.
func (r *Recognizer) Current() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Current()
}

// State returns a snapshot of the pipeline state.
func (r *Recognizer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Reset drops the history and the reported gesture without emitting an event.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = State{}
}
