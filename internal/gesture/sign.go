package gesture

import "math"

// Sign classifier thresholds.
const (
	// MinSignConfidence is what the pipeline requires before a sign result
	// pre-empts the base classifier.
	MinSignConfidence = 0.7

	letterIMinConfidence = 0.78
	loveMinConfidence    = 0.68
	youMinConfidence     = 0.78

	letterIThumbFactor = 0.45
	youSpreadFactor    = 0.28

	loveMinWristY       = 0.65
	loveMinWristX       = 0.35
	loveMaxWristX       = 0.65
	loveMaxTogetherness = 0.12
	lovePositionScale   = 2.86
)

// signRule is a predicate and confidence pair with its own acceptance floor.
// Unlike base rules, a sign whose confidence misses its floor lets
// evaluation fall through to the next sign.
type signRule struct {
	label         Label
	message       string
	minConfidence float64
	matches       func(f *Features) bool
	confidence    func(f *Features) float64
}

var signRules = []signRule{
	{
		label:         LabelLetterI,
		message:       "I",
		minConfidence: letterIMinConfidence,
		matches:       isLetterI,
		confidence:    letterIConfidence,
	},
	{
		label:         LabelLove,
		message:       "LOVE",
		minConfidence: loveMinConfidence,
		matches:       isLove,
		confidence:    loveConfidence,
	},
	{
		label:         LabelYou,
		message:       "YOU",
		minConfidence: youMinConfidence,
		matches:       isYou,
		confidence:    youConfidence,
	},
}

// SignClassifier recognizes the signs I, LOVE and YOU.
type SignClassifier struct{}

// NewSignClassifier returns a SignClassifier.
func NewSignClassifier() *SignClassifier {
	return &SignClassifier{}
}

// Classify returns the first confident sign, or none.
func (c *SignClassifier) Classify(obs Observation) Classification {
	f, ok := Extract(obs)
	if !ok {
		return none(obs.Landmarks)
	}
	return c.classifyFeatures(&f, obs.Landmarks)
}

func (c *SignClassifier) classifyFeatures(f *Features, lms []Point) Classification {
	for _, r := range signRules {
		if !r.matches(f) {
			continue
		}
		conf := r.confidence(f)
		if conf <= r.minConfidence {
			continue
		}
		return Classification{
			Label:      r.label,
			Confidence: math.Min(maxConfidence, conf),
			Message:    r.message,
			Landmarks:  lms,
		}
	}
	return none(lms)
}

// curlConfidence is one minus the mean distance of the given fingertips,
// in hand sizes, capped at 1.
func curlConfidence(f *Features, fingers ...int) float64 {
	var sum float64
	for _, i := range fingers {
		sum += f.TipDistances[i]
	}
	return 1.0 - math.Min(1.0, sum/(f.HandSize*float64(len(fingers))))
}

func isLetterI(f *Features) bool {
	return f.Extended(Pinky) &&
		f.Closed(Index) && f.Closed(Middle) && f.Closed(Ring) &&
		f.TipDistances[Thumb] < f.HandSize*letterIThumbFactor
}

func letterIConfidence(f *Features) float64 {
	pinky := math.Min(1.0, f.Reach(Pinky))
	return (pinky + curlConfidence(f, Index, Middle, Ring)) / 2
}

// isLove looks for a hand held low and centred in frame with the fingertips
// bunched together, i.e. a fist against the chest.
func isLove(f *Features) bool {
	return f.Wrist.Y > loveMinWristY &&
		f.Wrist.X > loveMinWristX && f.Wrist.X < loveMaxWristX &&
		f.Togetherness < loveMaxTogetherness
}

func loveConfidence(f *Features) float64 {
	position := math.Min(1.0, (f.Wrist.Y-loveMinWristY)*lovePositionScale)
	together := 1.0 - f.Togetherness
	return (position + together + f.ModelConfidence) / 3
}

func isYou(f *Features) bool {
	return f.Extended(Index) &&
		f.Closed(Thumb) && f.Closed(Middle) && f.Closed(Ring) && f.Closed(Pinky) &&
		f.ThumbIndexDistance > f.HandSize*youSpreadFactor
}

func youConfidence(f *Features) float64 {
	index := math.Min(1.0, f.Reach(Index))
	return (index + curlConfidence(f, Thumb, Middle, Ring, Pinky)) / 2
}
