package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	script [][]HandLandmarks
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.script = nil
}

// SetScript queues per-call results. Once the script runs out, Detect falls
// back to the hands set with SetHands.
func (m *MockDetector) SetScript(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = frames
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Preset poses. Each is built in hand units (wrist at the origin, middle
// knuckle one unit above it, y growing downwards as in image space) and then
// placed in the frame. Joints sit on the line from the wrist to their tip.

// fingerAngles are the fan directions, in degrees from straight up, of the
// thumb, index, middle, ring and pinky.
var fingerAngles = [5]float64{-60, -20, 0, 20, 40}

var tipLandmarks = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

func fan(reach, degrees float64) Point3D {
	rad := degrees * math.Pi / 180
	return Point3D{X: reach * math.Sin(rad), Y: -reach * math.Cos(rad)}
}

func fanTips(reach [5]float64) [5]Point3D {
	var tips [5]Point3D
	for i, r := range reach {
		tips[i] = fan(r, fingerAngles[i])
	}
	return tips
}

func lerp(a, b Point3D, t float64) Point3D {
	return Point3D{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// presetHand lays out a full skeleton from five fingertip positions.
func presetHand(tips [5]Point3D, score float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: score}
	wrist := Point3D{}
	knuckle := Point3D{X: 0, Y: -1}

	h.Points[Wrist] = wrist
	h.Points[MiddleMCP] = knuckle
	for f, tip := range tips {
		tipIdx := tipLandmarks[f]
		h.Points[tipIdx] = tip
		for k := 1; k <= 3; k++ {
			idx := tipIdx - 4 + k
			if idx == MiddleMCP {
				continue
			}
			if tipIdx == MiddleTip {
				h.Points[idx] = lerp(knuckle, tip, float64(k-1)/3)
				continue
			}
			h.Points[idx] = lerp(wrist, tip, float64(k)/4)
		}
	}

	// Place the hand in the lower half of a unit frame.
	return h.Scale(0.2).Translate(0.5, 0.8)
}

// OpenPalmLandmarks returns an open hand: every fingertip equally far from the wrist.
func OpenPalmLandmarks() HandLandmarks {
	return presetHand(fanTips([5]float64{1.8, 1.8, 1.8, 1.8, 1.8}), 0.95)
}

// FistLandmarks returns a closed fist: every fingertip tucked in near the wrist.
func FistLandmarks() HandLandmarks {
	return presetHand(fanTips([5]float64{0.3, 0.3, 0.3, 0.3, 0.3}), 0.95)
}

// PinchLandmarks returns thumb and index tips touching with the other fingers extended.
func PinchLandmarks() HandLandmarks {
	tips := fanTips([5]float64{1.0, 1.0, 1.8, 1.8, 1.8})
	tips[0] = Point3D{X: tips[1].X - 0.05, Y: tips[1].Y}
	return presetHand(tips, 0.95)
}

// PointLandmarks returns an extended index finger with the others loosely curled.
func PointLandmarks() HandLandmarks {
	return presetHand(fanTips([5]float64{0.38, 2.0, 0.45, 0.45, 0.45}), 0.95)
}

// LetterILandmarks returns the sign for "I": pinky up, everything else tucked.
func LetterILandmarks() HandLandmarks {
	return presetHand(fanTips([5]float64{0.4, 0.3, 0.3, 0.3, 1.8}), 0.95)
}

// YouLandmarks returns the sign for "YOU": index pointing, everything else tucked.
func YouLandmarks() HandLandmarks {
	return presetHand(fanTips([5]float64{0.3, 2.0, 0.3, 0.3, 0.3}), 0.95)
}

// LoveLandmarks returns the sign for "LOVE": a hand held low and centred with
// the fingertips bunched together.
func LoveLandmarks() HandLandmarks {
	tips := [5]Point3D{
		{X: -0.6, Y: -0.8},
		{X: -0.015, Y: -1.5},
		{X: -0.005, Y: -1.5},
		{X: 0.005, Y: -1.5},
		{X: 0.015, Y: -1.5},
	}
	return presetHand(tips, 0.9)
}

// Presets maps gesture names to their preset poses.
var Presets = map[string]func() HandLandmarks{
	"open":     OpenPalmLandmarks,
	"closed":   FistLandmarks,
	"pinch":    PinchLandmarks,
	"point":    PointLandmarks,
	"letter_i": LetterILandmarks,
	"love":     LoveLandmarks,
	"you":      YouLandmarks,
}
