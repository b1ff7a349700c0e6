package app

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// Reasons an action was not run.
const (
	SuppressedDisabled = "disabled"
	SuppressedCooldown = "cooldown"
)

// ActionLookup finds the action bound to a gesture. It returns nil when none is bound.
type ActionLookup interface {
	GetByGesture(label gesture.Label) (*store.Action, error)
}

// PluginSource resolves plugins by name.
type PluginSource interface {
	Get(name string) (*plugin.Plugin, error)
}

// ActionDispatcher runs the plugin action bound to each newly recognized
// gesture. A gesture's action runs at most once per cooldown.
type ActionDispatcher struct {
	actions  ActionLookup
	plugins  PluginSource
	runner   plugin.Runner
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	cooldown time.Duration
	recent   *cache.Cache
}

// NewActionDispatcher creates an ActionDispatcher. A zero cooldown disables
// repeat suppression.
func NewActionDispatcher(actions ActionLookup, plugins PluginSource, runner plugin.Runner, cooldown time.Duration, m *metrics.Metrics, log logrus.FieldLogger) *ActionDispatcher {
	cleanup := 2 * cooldown
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &ActionDispatcher{
		actions:  actions,
		plugins:  plugins,
		runner:   runner,
		metrics:  m,
		log:      log.WithField("component", "actions"),
		cooldown: cooldown,
		recent:   cache.New(cooldown, cleanup),
	}
}

func (d *ActionDispatcher) Name() string { return "actions" }

// Handle runs the action for e.To. Dropped gestures and unbound labels are ignored.
func (d *ActionDispatcher) Handle(ctx context.Context, e gesture.Event) error {
	if e.To == "" {
		return nil
	}

	action, err := d.actions.GetByGesture(e.To)
	if err != nil {
		return fmt.Errorf("look up action for %s: %w", e.To, err)
	}
	if action == nil {
		d.log.WithField("gesture", e.To).Debug("No action bound")
		return nil
	}
	if !action.Enabled {
		d.metrics.ObserveSuppressed(string(e.To), SuppressedDisabled)
		return nil
	}

	if d.cooldown > 0 {
		// Add fails while an unexpired entry exists.
		if err := d.recent.Add(string(e.To), e.At, d.cooldown); err != nil {
			d.metrics.ObserveSuppressed(string(e.To), SuppressedCooldown)
			d.log.WithField("gesture", e.To).Debug("Action suppressed by cooldown")
			return nil
		}
	}

	err = d.run(ctx, action, e)
	d.metrics.ObserveAction(string(e.To), err)
	return err
}

func (d *ActionDispatcher) run(ctx context.Context, action *store.Action, e gesture.Event) error {
	p, err := d.plugins.Get(action.PluginName)
	if err != nil {
		return fmt.Errorf("action %s: %w", action.ID, err)
	}
	if !p.Manifest.Supports(action.ActionName) {
		return fmt.Errorf("plugin %s does not support action %q", p.Manifest.Name, action.ActionName)
	}

	req := &plugin.Request{
		Action:     action.ActionName,
		Gesture:    e.To,
		Confidence: e.Confidence,
		Message:    e.Message,
		Config:     action.Config,
	}

	resp, err := d.runner.Execute(ctx, p, req)
	if err != nil {
		return fmt.Errorf("run %s/%s: %w", p.Manifest.Name, action.ActionName, err)
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s failed: %s", p.Manifest.Name, resp.Error)
	}

	d.log.WithFields(logrus.Fields{
		"gesture":    e.To,
		"confidence": e.Confidence,
		"plugin":     p.Manifest.Name,
		"action":     action.ActionName,
	}).Info("Action executed")
	return nil
}

// ResetCooldowns forgets recent runs.
func (d *ActionDispatcher) ResetCooldowns() {
	d.recent.Flush()
}
