package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager manages plugin discovery and access.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
	validate  *validator.Validate
	log       logrus.FieldLogger
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
		validate:  validator.New(),
		log:       log.WithField("component", "plugins"),
	}
}

// Discover scans the plugin directory for plugin.json files and loads them.
// Each subdirectory in the plugin directory is expected to be a plugin with a plugin.json manifest.
// Unreadable or invalid manifests are logged and skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil // No plugins directory, nothing to discover
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		manifestPath := filepath.Join(pluginPath, "plugin.json")

		if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
			continue
		}

		manifest, err := m.readManifest(manifestPath)
		if err != nil {
			m.log.WithError(err).WithField("path", manifestPath).Warn("Skipping plugin")
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   *manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
	}

	m.log.WithField("count", len(m.plugins)).Debug("Discovered plugins")
	return nil
}

func (m *Manager) readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	if err := m.validate.Struct(&manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}

	return plugin, nil
}

// ErrActionNotSupported is returned when a plugin does not list an action.
var ErrActionNotSupported = errors.New("action not supported")

// Supports returns nil if the named plugin exists and lists action.
func (m *Manager) Supports(name, action string) error {
	plugin, err := m.Get(name)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	if !plugin.Manifest.Supports(action) {
		return fmt.Errorf("%w: %s/%s", ErrActionNotSupported, name, action)
	}
	return nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})

	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
