// Package gesture turns per-frame hand landmarks into stable, confidence-scored gesture labels.
//
// A frame flows through Normalize, Extract, the sign classifier, the base
// classifier and finally the Stabilizer, which only reports a gesture once it
// has recurred in a majority of recent frames.
package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Label identifies a recognized gesture.
type Label string

// General hand poses produced by the base classifier.
const (
	LabelOpen    Label = "open"
	LabelClosed  Label = "closed"
	LabelPinch   Label = "pinch"
	LabelPoint   Label = "point"
	LabelUnknown Label = "unknown"
)

// Signs produced by the sign classifier.
const (
	LabelLetterI Label = "letter_i"
	LabelLove    Label = "love"
	LabelYou     Label = "you"
	LabelNone    Label = "none"
)

// Labels lists every label that can become a stable gesture.
var Labels = []Label{
	LabelOpen, LabelClosed, LabelPinch, LabelPoint,
	LabelLetterI, LabelLove, LabelYou,
}

// Valid reports whether l can be emitted as a stable gesture.
func (l Label) Valid() bool {
	for _, v := range Labels {
		if l == v {
			return true
		}
	}
	return false
}

// IsSign reports whether l belongs to the sign vocabulary.
func (l Label) IsSign() bool {
	return l == LabelLetterI || l == LabelLove || l == LabelYou
}

// DefaultModelConfidence is used when the landmark source reports no detection score.
const DefaultModelConfidence = 0.8

// ErrLandmarkCount is wrapped by LandmarkCountError.
var ErrLandmarkCount = errors.New("gesture: wrong landmark count")

// LandmarkCountError is returned when an observation does not carry exactly 21 landmarks.
type LandmarkCountError struct {
	Got int
}

func (e *LandmarkCountError) Error() string {
	return fmt.Sprintf("gesture: expected %d landmarks, got %d", detector.NumLandmarks, e.Got)
}

func (e *LandmarkCountError) Unwrap() error {
	return ErrLandmarkCount
}

// Observation is one frame of input: a single hand's landmarks and the
// model's detection score.
type Observation struct {
	Landmarks []Point
	Score     float64
}

// NewObservation validates the landmark count and returns an Observation.
// The score is normalized by modelScore.
func NewObservation(landmarks []Point, score float64) (Observation, error) {
	if len(landmarks) != detector.NumLandmarks {
		return Observation{}, &LandmarkCountError{Got: len(landmarks)}
	}
	pts := make([]Point, len(landmarks))
	copy(pts, landmarks)
	return Observation{Landmarks: pts, Score: modelScore(score)}, nil
}

// FromHand builds an Observation from detector output, dropping the depth axis.
func FromHand(h *detector.HandLandmarks) Observation {
	pts := make([]Point, detector.NumLandmarks)
	for i, p := range h.Points {
		pts[i] = Point{X: p.X, Y: p.Y}
	}
	return Observation{Landmarks: pts, Score: modelScore(h.Score)}
}

// modelScore replaces a missing score (zero or less) with
// DefaultModelConfidence and caps the rest at 1.
func modelScore(score float64) float64 {
	if score <= 0 {
		return DefaultModelConfidence
	}
	return math.Min(score, 1)
}

// Classification is a single frame's verdict.
type Classification struct {
	Label      Label   `json:"type"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message,omitempty"`
	Landmarks  []Point `json:"landmarks,omitempty"`
}

// Recognized reports whether the classification carries a real gesture.
func (c Classification) Recognized() bool {
	return c.Label != "" && c.Label != LabelUnknown && c.Label != LabelNone
}

func unknown(lms []Point) Classification {
	return Classification{Label: LabelUnknown, Landmarks: lms}
}

func none(lms []Point) Classification {
	return Classification{Label: LabelNone, Landmarks: lms}
}
