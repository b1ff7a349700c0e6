package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// runLoop samples the camera at the gate's rate. Every frame feeds the motion
// detector and the live view; hand detection runs only while the gate is active.
func (a *App) runLoop(ctx context.Context) {
	ticker := time.NewTicker(a.gate.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			a.log.WithError(err).Debug("Error reading frame")
			continue
		}

		if interval, changed := a.processFrame(frame); changed {
			ticker.Reset(interval)
		}
		frame.Close()
	}
}

// processFrame handles one camera frame. It reports the new tick interval
// when the gate changed mode.
func (a *App) processFrame(frame *gocv.Mat) (time.Duration, bool) {
	if err := a.latest.Store(frame); err != nil {
		a.log.WithError(err).Debug("Error encoding preview frame")
	}

	motion, _ := a.motion.Detect(frame)
	transition := a.gate.Observe(motion, a.now())
	if transition != capture.NoTransition {
		a.camera.SetFPS(a.gate.FPS())
		a.metrics.SetActive(a.gate.Active())
		a.log.WithField("fps", a.gate.FPS()).Debugf("Switched to %s mode", transition)
		if transition == capture.BecameIdle {
			// A still scene ends the gesture.
			a.observe(nil)
		}
	}

	if a.gate.Active() {
		start := time.Now()
		hands, err := a.detector.Detect(frame)
		a.handleDetection(hands, err, time.Since(start))
	}

	return a.gate.Interval(), transition != capture.NoTransition
}

// handleDetection feeds one detector result to the recognizer. A frame that
// finishes after detection was disabled is dropped.
func (a *App) handleDetection(hands []detector.HandLandmarks, err error, elapsed time.Duration) gesture.Result {
	hand := detector.Primary(hands)
	a.metrics.ObserveFrame(hand != nil, elapsed.Seconds(), err)
	if err != nil {
		a.log.WithError(err).Warn("Hand detection failed")
		return gesture.Result{}
	}

	var obs *gesture.Observation
	if hand != nil && hand.Valid() {
		o := gesture.FromHand(hand)
		obs = &o
	}

	res, ok := a.observe(obs)
	if !ok {
		return res
	}
	if res.Hand {
		a.metrics.ObserveClassification(string(res.Frame.Label))
		a.log.WithFields(logrus.Fields{
			"gesture":    res.Frame.Label,
			"confidence": res.Frame.Confidence,
		}).Trace("Frame classified")
	}
	return res
}

// observe passes obs to the recognizer unless detection is disabled.
func (a *App) observe(obs *gesture.Observation) (gesture.Result, bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if !a.IsEnabled() {
		return gesture.Result{}, false
	}
	return a.recognizer.Observe(obs), true
}
