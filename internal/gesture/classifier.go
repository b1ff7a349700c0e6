package gesture

import "math"

// Classifier labels a single observation.
type Classifier interface {
	Classify(obs Observation) Classification
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(obs Observation) Classification

// Classify calls f(obs).
func (f ClassifierFunc) Classify(obs Observation) Classification {
	return f(obs)
}

// Base classifier thresholds.
const (
	// MinBaseConfidence is the floor below which a matched pose is reported as unknown.
	MinBaseConfidence = 0.72
	maxConfidence     = 0.99

	openRatioLow  = 0.85
	openRatioHigh = 1.3
	openMinReach  = 0.75

	closedMaxReach = 0.45

	pinchFactor           = 0.18
	pinchConfidenceFactor = 0.25
	pinchMinOtherRatio    = 0.5

	pointMinIndexRatio  = 1.15
	pointMaxThumbRatio  = 0.55
	pointMaxOtherRatio  = 0.65
	pointMinSpreadRatio = 0.22
)

// rule pairs a predicate with the confidence it yields when it fires.
type rule struct {
	label      Label
	matches    func(f *Features) bool
	confidence func(f *Features) float64
}

// baseRules are evaluated in order; the first rule whose predicate holds
// decides the frame, even if its confidence then falls under the floor.
var baseRules = []rule{
	{label: LabelOpen, matches: isOpen, confidence: openConfidence},
	{label: LabelClosed, matches: isClosed, confidence: closedConfidence},
	{label: LabelPinch, matches: isPinch, confidence: pinchConfidence},
	{label: LabelPoint, matches: isPoint, confidence: pointConfidence},
}

// BaseClassifier recognizes the general poses open, closed, pinch and point.
type BaseClassifier struct{}

// NewBaseClassifier returns a BaseClassifier.
func NewBaseClassifier() *BaseClassifier {
	return &BaseClassifier{}
}

// Classify returns the first matching pose, or unknown with zero confidence
// when nothing matches or the match is not confident enough.
func (c *BaseClassifier) Classify(obs Observation) Classification {
	f, ok := Extract(obs)
	if !ok || f.Collapsed() {
		return unknown(obs.Landmarks)
	}
	return c.classifyFeatures(&f, obs.Landmarks)
}

func (c *BaseClassifier) classifyFeatures(f *Features, lms []Point) Classification {
	for _, r := range baseRules {
		if !r.matches(f) {
			continue
		}
		conf := r.confidence(f)
		if conf < MinBaseConfidence {
			return unknown(lms)
		}
		return Classification{
			Label:      r.label,
			Confidence: math.Min(maxConfidence, conf),
			Landmarks:  lms,
		}
	}
	return unknown(lms)
}

func ratiosWithin(f *Features, lo, hi float64) bool {
	for _, r := range f.ExtensionRatios {
		if r <= lo || r >= hi {
			return false
		}
	}
	return true
}

func meanReach(f *Features) float64 {
	return f.MeanDistance / f.HandSize
}

// isOpen needs uniformly extended fingers. Extension ratios are relative to
// their own mean, so a uniformly curled fist also has ratios near 1.0; the
// mean reach check tells the two apart.
func isOpen(f *Features) bool {
	return ratiosWithin(f, openRatioLow, openRatioHigh) && meanReach(f) > openMinReach
}

// openConfidence rewards uniform extension and a mean ratio close to 1.0.
func openConfidence(f *Features) float64 {
	ratios := f.ExtensionRatios[:]
	return math.Max(0, 0.92-variance(ratios)*1.8-math.Abs(mean(ratios)-1.0)*2.5)
}

func reaches(f *Features) []float64 {
	out := make([]float64, numFingers)
	for i := range out {
		out[i] = f.Reach(i)
	}
	return out
}

func isClosed(f *Features) bool {
	for _, r := range reaches(f) {
		if r >= closedMaxReach {
			return false
		}
	}
	return true
}

func closedConfidence(f *Features) float64 {
	return 0.95 - maxOf(reaches(f))*0.5
}

func isPinch(f *Features) bool {
	if f.ThumbIndexDistance >= f.HandSize*pinchFactor || isClosed(f) {
		return false
	}
	for _, r := range f.ExtensionRatios[Middle:] {
		if r <= pinchMinOtherRatio {
			return false
		}
	}
	return true
}

func pinchConfidence(f *Features) float64 {
	return 1.0 - f.ThumbIndexDistance/(f.HandSize*pinchConfidenceFactor)
}

func isPoint(f *Features) bool {
	r := f.ExtensionRatios
	return r[Index] > pointMinIndexRatio &&
		r[Thumb] < pointMaxThumbRatio &&
		r[Middle] < pointMaxOtherRatio &&
		r[Ring] < pointMaxOtherRatio &&
		r[Pinky] < pointMaxOtherRatio &&
		f.ThumbIndexDistance > f.HandSize*pointMinSpreadRatio
}

func pointConfidence(f *Features) float64 {
	return math.Min(0.95, (f.ExtensionRatios[Index]-1.0)*1.8)
}
