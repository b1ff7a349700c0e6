package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{name: "explicit", threshold: 0.05, want: 0.05},
		{name: "zero falls back to default", threshold: 0, want: DefaultMotionThreshold},
		{name: "negative falls back to default", threshold: -1, want: DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			assert.Equal(t, tt.want, md.Threshold())
			assert.False(t, md.initialized)
		})
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(0.01)
	defer md.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	detected, changed := md.Detect(&frame1)
	assert.False(t, detected, "first frame only sets the baseline")
	assert.Zero(t, changed)

	detected, changed = md.Detect(&frame2)
	assert.False(t, detected, "changed = %f", changed)
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(0.01)
	defer md.Close()

	frames := SyntheticFrames(2, 640, 480)
	defer closeAll(frames)

	detected, _ := md.Detect(frames[0])
	assert.False(t, detected)

	detected, changed := md.Detect(frames[1])
	assert.True(t, detected)
	assert.Greater(t, changed, 0.5)
	assert.LessOrEqual(t, changed, 1.0)
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(0.01)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	require.True(t, md.initialized)

	md.Reset()
	assert.False(t, md.initialized)
	assert.True(t, md.prevGray.Empty())
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(0.01)
	defer md.Close()

	md.SetThreshold(0.5)
	assert.Equal(t, 0.5, md.Threshold())

	md.SetThreshold(-1)
	assert.Equal(t, 0.5, md.Threshold(), "negative threshold is ignored")

	md.SetThreshold(50)
	assert.Equal(t, 0.5, md.Threshold(), "percentages are not fractions")
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(0.01)
	md.Close()
	md.Close()
}

func TestMotionDetector_NilFrame(t *testing.T) {
	md := NewMotionDetector(0.01)
	defer md.Close()

	detected, changed := md.Detect(nil)
	assert.False(t, detected)
	assert.Zero(t, changed)
}
