package gesture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
)

func observe(h detector.HandLandmarks) Observation {
	return FromHand(&h)
}

// tinyHand is an open palm whose middle knuckle sits almost on the wrist.
func tinyHand() detector.HandLandmarks {
	h := detector.OpenPalmLandmarks()
	w := h.Points[detector.Wrist]
	h.Points[detector.MiddleMCP] = detector.Point3D{X: w.X, Y: w.Y - 0.004}
	return h
}

// collapsedHand is a fist with every fingertip on the wrist.
func collapsedHand() detector.HandLandmarks {
	h := detector.FistLandmarks()
	w := h.Points[detector.Wrist]
	for _, idx := range tipIndices {
		h.Points[idx] = w
	}
	return h
}

func TestNewObservation(t *testing.T) {
	t.Run("rejects wrong landmark count", func(t *testing.T) {
		_, err := NewObservation(make([]Point, 20), 0.9)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLandmarkCount)

		var countErr *LandmarkCountError
		require.True(t, errors.As(err, &countErr))
		assert.Equal(t, 20, countErr.Got)
	})

	t.Run("defaults missing score", func(t *testing.T) {
		obs, err := NewObservation(make([]Point, detector.NumLandmarks), 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultModelConfidence, obs.Score)
	})

	t.Run("copies landmarks", func(t *testing.T) {
		pts := make([]Point, detector.NumLandmarks)
		obs, err := NewObservation(pts, 0.9)
		require.NoError(t, err)

		pts[0].X = 99
		assert.Zero(t, obs.Landmarks[0].X)
	})
}

func TestFromHand_Score(t *testing.T) {
	for _, tc := range []struct {
		name  string
		score float64
		want  float64
	}{
		{"in range", 0.6, 0.6},
		{"missing", 0, DefaultModelConfidence},
		{"negative", -1, DefaultModelConfidence},
		{"above one", 1.7, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := detector.OpenPalmLandmarks()
			h.Score = tc.score
			assert.Equal(t, tc.want, FromHand(&h).Score)

			obs, err := NewObservation(FromHand(&h).Landmarks, tc.score)
			require.NoError(t, err)
			assert.Equal(t, tc.want, obs.Score)
		})
	}
}

func TestExtract(t *testing.T) {
	t.Run("open palm", func(t *testing.T) {
		f, ok := Extract(observe(detector.OpenPalmLandmarks()))
		require.True(t, ok)

		for i, r := range f.ExtensionRatios {
			assert.InDelta(t, 1.0, r, 1e-9, "finger %d", i)
			assert.True(t, f.Extended(i))
			assert.False(t, f.Closed(i))
			assert.InDelta(t, 1.8, f.Reach(i), 1e-9)
		}
		assert.Equal(t, 1.0, f.Togetherness)
		assert.InDelta(t, 0.95, f.ModelConfidence, 1e-12)
	})

	t.Run("fist", func(t *testing.T) {
		f, ok := Extract(observe(detector.FistLandmarks()))
		require.True(t, ok)

		for i := 0; i < numFingers; i++ {
			assert.True(t, f.Closed(i))
			assert.InDelta(t, 0.3, f.Reach(i), 1e-9)
		}
		// The middle knuckle spans the whole frame.
		assert.InDelta(t, 1.0, f.HandSize, 1e-9)
	})

	t.Run("love fingertips are bunched", func(t *testing.T) {
		f, ok := Extract(observe(detector.LoveLandmarks()))
		require.True(t, ok)

		assert.InDelta(t, 0.0476, f.Togetherness, 1e-3)
		assert.InDelta(t, 0.4, f.Wrist.X, 1e-9)
		assert.InDelta(t, 1.0, f.Wrist.Y, 1e-9)
	})

	t.Run("thumb index distance is scale relative", func(t *testing.T) {
		f, ok := Extract(observe(detector.PinchLandmarks()))
		require.True(t, ok)
		assert.InDelta(t, 0.05, f.ThumbIndexDistance/f.HandSize, 1e-9)
	})

	t.Run("too small hand abstains", func(t *testing.T) {
		_, ok := Extract(observe(tinyHand()))
		assert.False(t, ok)
	})

	t.Run("collapsed fingertips extract without ratios", func(t *testing.T) {
		f, ok := Extract(observe(collapsedHand()))
		require.True(t, ok)
		assert.True(t, f.Collapsed())
		assert.Equal(t, [numFingers]float64{}, f.ExtensionRatios)
	})

	t.Run("wrong landmark count abstains", func(t *testing.T) {
		_, ok := Extract(Observation{Landmarks: make([]Point, 3)})
		assert.False(t, ok)
	})
}

func TestTogetherness(t *testing.T) {
	tips := []Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}}
	assert.Zero(t, togetherness(tips, 1))

	spread := []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	assert.Equal(t, 1.0, togetherness(spread, 1))

	assert.Equal(t, 1.0, togetherness(nil, 1))
}
