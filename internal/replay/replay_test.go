package replay

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func loadSequence(t *testing.T, name string) []Frame {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "testdata", "sequences", name))
	require.NoError(t, err)
	defer f.Close()

	frames, err := ReadAll(f)
	require.NoError(t, err)
	return frames
}

func labels(events []gesture.Event) []gesture.Label {
	out := make([]gesture.Label, len(events))
	for i, e := range events {
		out[i] = e.To
	}
	return out
}

func TestRun_Sequences(t *testing.T) {
	tests := []struct {
		file string
		want []gesture.Label
	}{
		{
			file: "open_then_fist.jsonl",
			want: []gesture.Label{gesture.LabelOpen, gesture.LabelClosed},
		},
		{
			file: "signs.jsonl",
			want: []gesture.Label{gesture.LabelLetterI, "", gesture.LabelLove, gesture.LabelYou},
		},
		{
			file: "point_flicker.jsonl",
			want: []gesture.Label{gesture.LabelPoint, ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			steps, err := Run(gesture.NewPipeline(), loadSequence(t, tt.file), start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, labels(Events(steps)))
		})
	}
}

func TestRun_OpenThenFistTiming(t *testing.T) {
	steps, err := Run(gesture.NewPipeline(), loadSequence(t, "open_then_fist.jsonl"), start)
	require.NoError(t, err)
	require.Len(t, steps, 6)

	events := Events(steps)
	require.Len(t, events, 2)
	assert.Equal(t, start.Add(200*time.Millisecond), events[0].At)
	// The fist takes over once it holds two of the last three frames.
	assert.Equal(t, start.Add(400*time.Millisecond), events[1].At)
	assert.Equal(t, gesture.LabelOpen, events[1].From)
}

func TestRun_DefaultsMissingScore(t *testing.T) {
	frames := loadSequence(t, "point_flicker.jsonl")
	require.Len(t, frames, 6)
	assert.Zero(t, frames[1].Score)

	obs, err := frames[1].Observation()
	require.NoError(t, err)
	assert.Equal(t, gesture.DefaultModelConfidence, obs.Score)

	assert.False(t, frames[4].HasHand())
	obs, err = frames[4].Observation()
	require.NoError(t, err)
	assert.Nil(t, obs)
}

func TestRun_SpacesFramesWithoutOffsets(t *testing.T) {
	hand := FromHand(ptr(detector.OpenPalmLandmarks()), 0)
	hand.OffsetMS = nil

	steps, err := Run(gesture.NewPipeline(), []Frame{hand, hand, hand}, start)
	require.NoError(t, err)
	assert.Equal(t, start, steps[0].At)
	assert.Equal(t, start.Add(2*DefaultInterval), steps[2].At)
}

func TestDecoder(t *testing.T) {
	input := strings.Join([]string{
		"# header",
		"",
		"null",
		`{"t":100}`,
		`{"t":200,"landmarks":[{"x":1,"y":2}]}`,
	}, "\n")

	d := NewDecoder(strings.NewReader(input))

	f, err := d.Next()
	require.NoError(t, err)
	assert.False(t, f.HasHand())
	assert.Equal(t, 3, d.Line())

	f, err = d.Next()
	require.NoError(t, err)
	require.NotNil(t, f.OffsetMS)
	assert.Equal(t, int64(100), *f.OffsetMS)

	_, err = d.Next()
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 5, lineErr.Line)
	assert.ErrorIs(t, err, gesture.ErrLandmarkCount)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_MalformedJSON(t *testing.T) {
	_, err := ReadAll(strings.NewReader("{\"t\":0}\n{not json}\n"))
	var lineErr *LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 2, lineErr.Line)
}

func TestEncoder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	love := detector.LoveLandmarks()
	require.NoError(t, enc.Encode(FromHand(&love, 0)))
	require.NoError(t, enc.Encode(FromHand(nil, 150*time.Millisecond)))

	frames, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Len(t, frames[0].Landmarks, detector.NumLandmarks)
	assert.Equal(t, 0.9, frames[0].Score)
	assert.Equal(t, love.Points[detector.IndexTip].X, frames[0].Landmarks[detector.IndexTip].X)
	assert.False(t, frames[1].HasHand())
	assert.Equal(t, int64(150), *frames[1].OffsetMS)
}

func ptr(h detector.HandLandmarks) *detector.HandLandmarks {
	return &h
}
