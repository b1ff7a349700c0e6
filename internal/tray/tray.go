// Package tray shows recognition state in the system tray and lets the user
// pause detection without opening the web UI.
package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
)

// Controller is the part of the app the tray drives.
type Controller interface {
	IsEnabled() bool
	SetEnabled(enabled bool) error
}

// Tray is the system tray menu. It is also an event sink so the menu shows
// the most recent stable gesture.
type Tray struct {
	ctl Controller
	log logrus.FieldLogger

	mu         sync.Mutex
	onSettings func()
	onQuit     func()
	last       gesture.View
	hasLast    bool

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a tray bound to ctl.
func New(ctl Controller, log logrus.FieldLogger) *Tray {
	return &Tray{ctl: ctl, log: log}
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray and blocks until Quit is called. It must run on the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand gesture recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.ctl.IsEnabled()), "Toggle gesture recognition")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last, t.hasLast), "Last detected gesture")
	t.menuLastGesture.Disable()
	toggle := t.menuToggle
	t.mu.Unlock()

	systray.AddSeparator()
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// Name identifies the tray as an event sink.
func (t *Tray) Name() string {
	return "tray"
}

// Handle records a gesture change and refreshes the menu.
func (t *Tray) Handle(_ context.Context, e gesture.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = gesture.NewView(e)
	t.hasLast = e.To != ""
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(t.last, t.hasLast))
	}
	return nil
}

// LastTitle returns the text of the last-gesture menu item.
func (t *Tray) LastTitle() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lastTitle(t.last, t.hasLast)
}

func (t *Tray) handleToggle() {
	enabled := !t.ctl.IsEnabled()
	if err := t.ctl.SetEnabled(enabled); err != nil {
		t.log.WithError(err).Warn("Failed to toggle detection")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(t.ctl.IsEnabled()))
	}
}

func (t *Tray) handleSettings() {
	t.mu.Lock()
	callback := t.onSettings
	t.mu.Unlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.Lock()
	callback := t.onQuit
	t.mu.Unlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(v gesture.View, ok bool) string {
	if !ok {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s (%s)", v.Display, v.Level)
}
