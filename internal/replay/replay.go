// Package replay reads and writes recorded landmark sequences as JSON lines
// and runs them through the gesture pipeline.
//
// Each line holds one frame:
//
//	{"t":100,"landmarks":[{"x":0.5,"y":0.8}, ...],"score":0.95}
//
// "t" is the offset in milliseconds from the start of the recording. A frame
// without landmarks means no hand was detected. Blank lines and lines starting
// with '#' are skipped.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// DefaultInterval spaces frames that carry no offset.
const DefaultInterval = 100 * time.Millisecond

// Frame is one recorded frame.
type Frame struct {
	OffsetMS  *int64          `json:"t,omitempty"`
	Landmarks []gesture.Point `json:"landmarks,omitempty"`
	Score     float64         `json:"score,omitempty"`
}

// HasHand reports whether the frame carries landmarks.
func (f Frame) HasHand() bool {
	return len(f.Landmarks) > 0
}

// Observation converts the frame for the pipeline. It returns nil without
// error when the frame has no hand.
func (f Frame) Observation() (*gesture.Observation, error) {
	if !f.HasHand() {
		return nil, nil
	}
	obs, err := gesture.NewObservation(f.Landmarks, f.Score)
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

// FromHand records detector output. A nil hand records an empty frame.
func FromHand(h *detector.HandLandmarks, offset time.Duration) Frame {
	ms := offset.Milliseconds()
	f := Frame{OffsetMS: &ms}
	if h == nil {
		return f
	}
	obs := gesture.FromHand(h)
	f.Landmarks = obs.Landmarks
	f.Score = h.Score
	return f
}

// LineError reports a malformed line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Decoder reads frames from a JSON-lines stream.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Decoder{scanner: scanner}
}

// Line returns the line number of the last frame returned by Next.
func (d *Decoder) Line() int {
	return d.line
}

// Next returns the next frame, or io.EOF at the end of the stream.
func (d *Decoder) Next() (Frame, error) {
	for d.scanner.Scan() {
		d.line++
		text := bytes.TrimSpace(d.scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		var f Frame
		if bytes.Equal(text, []byte("null")) {
			return f, nil
		}
		if err := json.Unmarshal(text, &f); err != nil {
			return Frame{}, &LineError{Line: d.line, Err: err}
		}
		if f.HasHand() && len(f.Landmarks) != detector.NumLandmarks {
			return Frame{}, &LineError{Line: d.line, Err: &gesture.LandmarkCountError{Got: len(f.Landmarks)}}
		}
		return f, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("read frames: %w", err)
	}
	return Frame{}, io.EOF
}

// ReadAll decodes every frame in r.
func ReadAll(r io.Reader) ([]Frame, error) {
	d := NewDecoder(r)
	var frames []Frame
	for {
		f, err := d.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

// Encoder writes frames as JSON lines.
type Encoder struct {
	enc *json.Encoder
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Encode writes f followed by a newline.
func (e *Encoder) Encode(f Frame) error {
	return e.enc.Encode(f)
}

// Step is the pipeline's verdict on one replayed frame.
type Step struct {
	Index  int
	At     time.Time
	Result gesture.Result
}

// Run feeds frames through p starting from an empty state. Frames without an
// offset are placed DefaultInterval after the previous one.
func Run(p *gesture.Pipeline, frames []Frame, start time.Time) ([]Step, error) {
	var state gesture.State
	steps := make([]Step, 0, len(frames))
	at := start

	for i, f := range frames {
		switch {
		case f.OffsetMS != nil:
			at = start.Add(time.Duration(*f.OffsetMS) * time.Millisecond)
		case i > 0:
			at = at.Add(DefaultInterval)
		}

		obs, err := f.Observation()
		if err != nil {
			return steps, fmt.Errorf("frame %d: %w", i, err)
		}

		var res gesture.Result
		state, res = p.Step(state, obs, at)
		steps = append(steps, Step{Index: i, At: at, Result: res})
	}
	return steps, nil
}

// Events returns the gesture changes among steps.
func Events(steps []Step) []gesture.Event {
	var events []gesture.Event
	for _, s := range steps {
		if s.Result.Changed {
			events = append(events, s.Result.Event)
		}
	}
	return events
}
