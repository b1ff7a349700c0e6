package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
)

func TestBaseClassifier(t *testing.T) {
	c := NewBaseClassifier()

	tests := []struct {
		name       string
		hand       detector.HandLandmarks
		wantLabel  Label
		wantConfid float64
	}{
		{"open palm", detector.OpenPalmLandmarks(), LabelOpen, 0.92},
		{"fist", detector.FistLandmarks(), LabelClosed, 0.80},
		{"pinch", detector.PinchLandmarks(), LabelPinch, 0.80},
		{"point", detector.PointLandmarks(), LabelPoint, 0.95},
		{"you reads as point without signs", detector.YouLandmarks(), LabelPoint, 0.95},
		{"letter i is not a base pose", detector.LetterILandmarks(), LabelUnknown, 0},
		{"love is not a base pose", detector.LoveLandmarks(), LabelUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := observe(tt.hand)
			got := c.Classify(obs)

			assert.Equal(t, tt.wantLabel, got.Label)
			assert.InDelta(t, tt.wantConfid, got.Confidence, 1e-6)
			assert.Equal(t, obs.Landmarks, got.Landmarks)
			assert.Empty(t, got.Message)
		})
	}
}

func TestBaseClassifier_FirstMatchDecides(t *testing.T) {
	// Thumb and index twice as far apart as the pinch preset: the pinch
	// predicate still holds but its confidence is 0.6, so the frame is
	// unknown rather than falling through to later rules.
	h := detector.PinchLandmarks()
	h.Points[detector.ThumbTip].X -= 0.01

	got := NewBaseClassifier().Classify(observe(h))
	assert.Equal(t, LabelUnknown, got.Label)
	assert.Zero(t, got.Confidence)
}

func TestBaseClassifier_ConfidenceIsCapped(t *testing.T) {
	h := detector.PinchLandmarks()
	h.Points[detector.ThumbTip] = h.Points[detector.IndexTip]

	got := NewBaseClassifier().Classify(observe(h))
	require.Equal(t, LabelPinch, got.Label)
	assert.Equal(t, maxConfidence, got.Confidence)
}

func TestBaseClassifier_Abstains(t *testing.T) {
	c := NewBaseClassifier()

	t.Run("tiny hand", func(t *testing.T) {
		got := c.Classify(observe(tinyHand()))
		assert.Equal(t, LabelUnknown, got.Label)
		assert.Zero(t, got.Confidence)
	})

	t.Run("wrong landmark count", func(t *testing.T) {
		got := c.Classify(Observation{Landmarks: make([]Point, 4), Score: 0.9})
		assert.Equal(t, LabelUnknown, got.Label)
	})

	t.Run("collapsed fingertips", func(t *testing.T) {
		got := c.Classify(observe(collapsedHand()))
		assert.Equal(t, LabelUnknown, got.Label)
		assert.Zero(t, got.Confidence)
	})
}

func TestBaseClassifier_Bounds(t *testing.T) {
	c := NewBaseClassifier()
	presets := []detector.HandLandmarks{
		detector.OpenPalmLandmarks(),
		detector.FistLandmarks(),
		detector.PinchLandmarks(),
		detector.PointLandmarks(),
		detector.LetterILandmarks(),
		detector.YouLandmarks(),
		detector.LoveLandmarks(),
	}

	for _, h := range presets {
		// Translation and scale of the whole hand must not change the verdict.
		for _, k := range []float64{0.5, 1, 3} {
			base := c.Classify(observe(h))
			moved := c.Classify(observe(h.Scale(k).Translate(0.1, -0.2)))

			assert.Equal(t, base.Label, moved.Label)
			assert.InDelta(t, base.Confidence, moved.Confidence, 1e-9)

			if moved.Label == LabelUnknown {
				assert.Zero(t, moved.Confidence)
				continue
			}
			assert.GreaterOrEqual(t, moved.Confidence, MinBaseConfidence)
			assert.LessOrEqual(t, moved.Confidence, maxConfidence)
		}
	}
}

func TestClassifierFunc(t *testing.T) {
	var called bool
	c := ClassifierFunc(func(obs Observation) Classification {
		called = true
		return Classification{Label: LabelOpen, Confidence: obs.Score}
	})

	got := c.Classify(Observation{Score: 0.5})
	assert.True(t, called)
	assert.Equal(t, LabelOpen, got.Label)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestLabel(t *testing.T) {
	for _, l := range Labels {
		assert.True(t, l.Valid(), l)
	}
	assert.False(t, LabelUnknown.Valid())
	assert.False(t, LabelNone.Valid())
	assert.False(t, Label("wave").Valid())

	assert.True(t, LabelLove.IsSign())
	assert.False(t, LabelPinch.IsSign())
}

func TestClassification_Recognized(t *testing.T) {
	assert.True(t, Classification{Label: LabelPoint}.Recognized())
	assert.False(t, Classification{Label: LabelUnknown}.Recognized())
	assert.False(t, Classification{Label: LabelNone}.Recognized())
	assert.False(t, Classification{}.Recognized())
}
