package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Finger indexes into the per-finger arrays of Features.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	numFingers
)

// Feature thresholds. These are empirically chosen bands; they encode the
// only calibration the classifiers have and must not be tuned casually.
const (
	// MinHandSize is the smallest wrist-to-middle-knuckle distance, in
	// normalized units, for which the geometry is trusted.
	MinHandSize = 0.05
	// minMeanTipDistance guards the extension-ratio division; see Collapsed.
	minMeanTipDistance = 0.01

	extendedFactor     = 0.75
	closedFactor       = 0.35
	togethernessFactor = 0.35
)

var tipIndices = [numFingers]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// Features are the per-frame quantities both classifiers work from.
// They are derived from normalized landmarks and never retained.
type Features struct {
	Wrist Point
	Tips  [numFingers]Point

	// TipDistances holds each fingertip's distance to the wrist.
	TipDistances [numFingers]float64
	// ExtensionRatios holds TipDistances divided by their mean.
	ExtensionRatios [numFingers]float64
	MeanDistance    float64

	// HandSize is the wrist to middle-finger-base distance.
	HandSize           float64
	ThumbIndexDistance float64
	Togetherness       float64

	ModelConfidence float64
}

// Extract computes Features from an observation. ok is false when the hand is
// too small for its geometry to be trusted; that is an abstention, not an
// error. A collapsed hand still extracts, with zero extension ratios.
func Extract(obs Observation) (f Features, ok bool) {
	if len(obs.Landmarks) != detector.NumLandmarks {
		return Features{}, false
	}
	lms := Normalize(obs.Landmarks)

	f.Wrist = lms[detector.Wrist]
	f.HandSize = Distance(f.Wrist, lms[detector.MiddleMCP])
	f.ModelConfidence = obs.Score
	if f.HandSize < MinHandSize {
		return f, false
	}

	for i, idx := range tipIndices {
		f.Tips[i] = lms[idx]
		f.TipDistances[i] = Distance(lms[idx], f.Wrist)
	}
	f.MeanDistance = mean(f.TipDistances[:])
	if !f.Collapsed() {
		for i, d := range f.TipDistances {
			f.ExtensionRatios[i] = d / f.MeanDistance
		}
	}

	f.ThumbIndexDistance = Distance(f.Tips[Thumb], f.Tips[Index])
	f.Togetherness = togetherness(f.Tips[Index:], f.HandSize)
	return f, true
}

// Collapsed reports whether the fingertips sit so close to the wrist that
// extension ratios are meaningless. Only the base classifier depends on them.
func (f *Features) Collapsed() bool {
	return f.MeanDistance < minMeanTipDistance
}

// Reach is a fingertip's distance to the wrist in hand sizes.
func (f *Features) Reach(finger int) float64 {
	return f.TipDistances[finger] / f.HandSize
}

// Extended reports whether the fingertip is further than 0.75 hand sizes from the wrist.
func (f *Features) Extended(finger int) bool {
	return f.TipDistances[finger] > f.HandSize*extendedFactor
}

// Closed reports whether the fingertip is within 0.35 hand sizes of the wrist.
func (f *Features) Closed(finger int) bool {
	return f.TipDistances[finger] < f.HandSize*closedFactor
}

// togetherness scores how tightly the non-thumb fingertips are bunched:
// mean pairwise distance over 0.35 hand sizes, clamped to [0, 1].
func togetherness(tips []Point, handSize float64) float64 {
	if handSize <= 0 {
		handSize = 1
	}
	var total float64
	var count int
	for i := 0; i < len(tips); i++ {
		for j := i + 1; j < len(tips); j++ {
			total += Distance(tips[i], tips[j])
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return clamp(total/float64(count)/(handSize*togethernessFactor), 0, 1)
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		m = math.Max(m, v)
	}
	return m
}
