package gesture

import "time"

// Confidence levels used when presenting a gesture.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
	LevelPoor   = "poor"
)

// ConfidenceLevel buckets a confidence for display.
func ConfidenceLevel(c float64) string {
	switch {
	case c > 0.85:
		return LevelHigh
	case c > 0.7:
		return LevelMedium
	case c > 0.5:
		return LevelLow
	default:
		return LevelPoor
	}
}

var displayText = map[Label]string{
	LabelLetterI: `Letter "I" detected!`,
	LabelLove:    `Word "LOVE" detected!`,
	LabelYou:     `Word "YOU" detected!`,
	LabelOpen:    "Open Hand",
	LabelClosed:  "Closed Fist",
	LabelPinch:   "Pinch Gesture",
	LabelPoint:   "Pointing Gesture",
}

// DisplayText returns a human readable description of l.
func DisplayText(l Label) string {
	if s, ok := displayText[l]; ok {
		return s
	}
	return "Show your hand clearly"
}

// Bones lists the landmark index pairs that form the hand skeleton,
// for clients that draw an overlay.
var Bones = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 4},
	{0, 5}, {5, 6}, {6, 7}, {7, 8},
	{0, 9}, {9, 10}, {10, 11}, {11, 12},
	{0, 13}, {13, 14}, {14, 15}, {15, 16},
	{0, 17}, {17, 18}, {18, 19}, {19, 20},
}

// View is an Event dressed for clients: the raw change plus its display text
// and confidence bucket.
type View struct {
	From       Label     `json:"from"`
	To         Label     `json:"to"`
	Confidence float64   `json:"confidence"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Display    string    `json:"display"`
	At         time.Time `json:"at"`
}

// NewView builds the client view of e. A dropped gesture displays the
// show-your-hand prompt.
func NewView(e Event) View {
	return View{
		From:       e.From,
		To:         e.To,
		Confidence: e.Confidence,
		Level:      ConfidenceLevel(e.Confidence),
		Message:    e.Message,
		Display:    DisplayText(e.To),
		At:         e.At,
	}
}
