// Package detector provides hand landmark detection for the gesture pipeline.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// Z is carried through from the model but ignored by classification.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Primary returns the hand that should be classified, which is the first one
// the model reported. Returns nil when no hand was detected.
func Primary(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}

// Valid reports whether every landmark holds a finite coordinate.
func (h *HandLandmarks) Valid() bool {
	if h == nil {
		return false
	}
	for _, p := range h.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// Translate returns a copy of the hand moved by (dx, dy).
func (h HandLandmarks) Translate(dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// Scale returns a copy of the hand scaled by k about the origin.
func (h HandLandmarks) Scale(k float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X *= k
		h.Points[i].Y *= k
		h.Points[i].Z *= k
	}
	return h
}
