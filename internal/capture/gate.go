package capture

import (
	"time"
)

// Gate switches sampling between an idle and an active frame rate. Motion
// puts it in active mode; it falls back to idle once IdleTimeout passes
// without motion. Hand detection only runs while active.
//
// A Gate is not safe for concurrent use; it belongs to the capture loop.
type Gate struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration

	active     bool
	lastMotion time.Time
}

// Transition is reported by Observe when the mode changes.
type Transition int

const (
	NoTransition Transition = iota
	BecameActive
	BecameIdle
)

func (t Transition) String() string {
	switch t {
	case BecameActive:
		return "active"
	case BecameIdle:
		return "idle"
	default:
		return "unchanged"
	}
}

// NewGate returns a Gate in idle mode.
func NewGate(idleFPS, activeFPS int, idleTimeout time.Duration) *Gate {
	if idleFPS <= 0 {
		idleFPS = DefaultFPS
	}
	if activeFPS < idleFPS {
		activeFPS = idleFPS
	}
	return &Gate{
		IdleFPS:     idleFPS,
		ActiveFPS:   activeFPS,
		IdleTimeout: idleTimeout,
	}
}

// Observe records whether the current frame showed motion.
func (g *Gate) Observe(motion bool, now time.Time) Transition {
	if motion {
		g.lastMotion = now
		if !g.active {
			g.active = true
			return BecameActive
		}
		return NoTransition
	}

	if g.active && now.Sub(g.lastMotion) > g.IdleTimeout {
		g.active = false
		return BecameIdle
	}
	return NoTransition
}

// Active reports whether frames should be sent to the hand detector.
func (g *Gate) Active() bool {
	return g.active
}

// FPS returns the frame rate for the current mode.
func (g *Gate) FPS() int {
	if g.active {
		return g.ActiveFPS
	}
	return g.IdleFPS
}

// Interval returns the time between frames for the current mode.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
