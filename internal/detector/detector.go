package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand landmark sources.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report. Only the first is classified.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the location of mediapipe_service.py.
	ScriptPath string

	// PythonPath overrides the interpreter; a project venv is preferred when empty.
	PythonPath string

	// IdleTimeout stops the model subprocess after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}
