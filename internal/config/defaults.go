package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// setDefaults sets default values for every key. Durations are strings so
// that a written default file stays human readable.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "~/.mudra")

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.static_dir", "")

	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)

	v.SetDefault("pipeline.idle_fps", 5)
	v.SetDefault("pipeline.active_fps", 15)
	v.SetDefault("pipeline.idle_timeout", "2s")
	v.SetDefault("pipeline.motion_threshold", 0.02)

	v.SetDefault("detector.mock", false)
	v.SetDefault("detector.script_path", "")
	v.SetDefault("detector.python_path", "")
	v.SetDefault("detector.min_confidence", 0.5)
	v.SetDefault("detector.idle_timeout", "30s")

	v.SetDefault("plugins.dir", "")
	v.SetDefault("plugins.timeout", "5s")

	v.SetDefault("actions.cooldown", "2s")

	v.SetDefault("events.keep", 1000)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "mudra")
	v.SetDefault("mqtt.topic", "mudra/gesture")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.retain", false)

	v.SetDefault("tray.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)
}

// DefaultYAML renders the default configuration as YAML.
func DefaultYAML() ([]byte, error) {
	v := viper.New()
	setDefaults(v)
	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := DefaultYAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
