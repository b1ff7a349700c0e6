// Package app wires the camera, hand detector, gesture recognizer and the
// sinks that react to gesture changes.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing defaults.
const (
	DefaultIdleFPS     = 5
	DefaultActiveFPS   = 15
	DefaultIdleTimeout = 2 * time.Second
)

// ErrRunning is returned by Start when the pipeline is already running.
var ErrRunning = errors.New("pipeline already running")

// Config holds configuration options for the application.
type Config struct {
	IdleFPS         int
	ActiveFPS       int
	IdleTimeout     time.Duration
	MotionThreshold float64
}

func (c *Config) setDefaults() {
	if c.IdleFPS <= 0 {
		c.IdleFPS = DefaultIdleFPS
	}
	if c.ActiveFPS <= 0 {
		c.ActiveFPS = DefaultActiveFPS
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.MotionThreshold <= 0 {
		c.MotionThreshold = capture.DefaultMotionThreshold
	}
}

// Deps are the collaborators an App drives. Camera and Detector are required.
type Deps struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Store persists the enabled toggle. Optional.
	Store   *store.Store
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// App is the main application that orchestrates gesture detection and the
// reactions to it.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	gate       *capture.Gate
	detector   detector.Detector
	recognizer *gesture.Recognizer
	latest     *capture.Latest
	bus        *bus
	store      *store.Store
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
	now        func() time.Time

	mu      sync.RWMutex
	enabled bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// frameMu orders recognizer updates from the loop against SetEnabled.
	frameMu sync.Mutex
}

// New creates an App. Detection starts enabled unless the store says otherwise.
func New(config Config, deps Deps) (*App, error) {
	if deps.Camera == nil || deps.Detector == nil {
		return nil, errors.New("app: camera and detector are required")
	}
	config.setDefaults()

	log := logging.OrDiscard(deps.Log).WithField("component", "app")
	m := deps.Metrics
	if m == nil {
		var err error
		if m, err = metrics.NewMetrics(prometheus.NewRegistry()); err != nil {
			return nil, err
		}
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	a := &App{
		config:     config,
		camera:     deps.Camera,
		motion:     capture.NewMotionDetector(config.MotionThreshold),
		gate:       capture.NewGate(config.IdleFPS, config.ActiveFPS, config.IdleTimeout),
		detector:   deps.Detector,
		recognizer: gesture.NewRecognizer(gesture.WithClock(now)),
		latest:     capture.NewLatest(),
		bus:        newBus(DefaultBusSize, log, m),
		store:      deps.Store,
		metrics:    m,
		log:        log,
		now:        now,
		enabled:    true,
	}

	if a.store != nil {
		enabled, err := a.store.Settings().Bool(store.SettingEnabled, true)
		if err != nil {
			return nil, fmt.Errorf("load enabled setting: %w", err)
		}
		a.enabled = enabled
	}

	a.recognizer.OnChange(a.onChange)
	return a, nil
}

// AddSink registers a consumer of gesture change events.
func (a *App) AddSink(s Sink) {
	a.bus.add(s)
}

// SetEnabled turns detection on or off and persists the choice. Disabling
// ends the current gesture.
func (a *App) SetEnabled(enabled bool) error {
	a.frameMu.Lock()
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()
	if !enabled {
		a.recognizer.Observe(nil)
	}
	a.frameMu.Unlock()

	a.log.WithField("enabled", enabled).Info("Detection toggled")
	if a.store == nil {
		return nil
	}
	return a.store.Settings().SetBool(store.SettingEnabled, enabled)
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Current returns the reported gesture, if any.
func (a *App) Current() (gesture.Entry, bool) {
	return a.recognizer.Current()
}

// Recognizer exposes the recognizer for callers that feed it directly.
func (a *App) Recognizer() *gesture.Recognizer {
	return a.recognizer
}

// Latest returns the most recent camera frame buffer.
func (a *App) Latest() *capture.Latest {
	return a.latest
}

// Start opens the camera and runs the detection loop and event delivery
// until Stop is called or ctx is done.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return ErrRunning
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.gate.FPS())

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.bus.run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.runLoop(ctx)
	}()

	a.log.Info("Detection pipeline started")
	return nil
}

// Stop halts the pipeline, waits for its goroutines and releases the camera,
// motion detector and hand detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		a.wg.Wait()
	}

	if err := a.camera.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing camera")
	}
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing detector")
	}

	a.log.Info("Detection pipeline stopped")
}

func (a *App) onChange(e gesture.Event) {
	a.metrics.ObserveChange(string(e.To))
	a.log.WithFields(logrus.Fields{
		"gesture":    e.To,
		"confidence": e.Confidence,
		"from":       e.From,
	}).Info("Gesture changed")
	a.bus.publish(e)
}
