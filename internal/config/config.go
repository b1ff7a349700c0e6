// Package config loads mudra settings from a YAML file, MUDRA_* environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the config file name searched for, without extension.
const FileName = "mudra"

// EnvPrefix prefixes environment overrides, e.g. MUDRA_SERVER_ADDR.
const EnvPrefix = "MUDRA"

// Settings is the full application configuration.
type Settings struct {
	DataDir  string           `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
	Server   ServerSettings   `mapstructure:"server" yaml:"server"`
	Camera   CameraSettings   `mapstructure:"camera" yaml:"camera"`
	Pipeline PipelineSettings `mapstructure:"pipeline" yaml:"pipeline"`
	Detector DetectorSettings `mapstructure:"detector" yaml:"detector"`
	Plugins  PluginSettings   `mapstructure:"plugins" yaml:"plugins"`
	Actions  ActionSettings   `mapstructure:"actions" yaml:"actions"`
	Events   EventSettings    `mapstructure:"events" yaml:"events"`
	MQTT     MQTTSettings     `mapstructure:"mqtt" yaml:"mqtt"`
	Tray     TraySettings     `mapstructure:"tray" yaml:"tray"`
	Log      LogSettings      `mapstructure:"log" yaml:"log"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr      string `mapstructure:"addr" yaml:"addr" validate:"required,hostname_port"`
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`
}

// CameraSettings selects and sizes the capture device.
type CameraSettings struct {
	Device int `mapstructure:"device" yaml:"device" validate:"gte=0"`
	Width  int `mapstructure:"width" yaml:"width" validate:"gt=0"`
	Height int `mapstructure:"height" yaml:"height" validate:"gt=0"`
}

// PipelineSettings tunes the motion-gated detection loop.
type PipelineSettings struct {
	IdleFPS         int           `mapstructure:"idle_fps" yaml:"idle_fps" validate:"gt=0"`
	ActiveFPS       int           `mapstructure:"active_fps" yaml:"active_fps" validate:"gtefield=IdleFPS"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"gt=0"`
	MotionThreshold float64       `mapstructure:"motion_threshold" yaml:"motion_threshold" validate:"gt=0,lte=1"`
}

// DetectorSettings configures the landmark model.
type DetectorSettings struct {
	Mock          bool          `mapstructure:"mock" yaml:"mock"`
	ScriptPath    string        `mapstructure:"script_path" yaml:"script_path"`
	PythonPath    string        `mapstructure:"python_path" yaml:"python_path"`
	MinConfidence float64       `mapstructure:"min_confidence" yaml:"min_confidence" validate:"gte=0,lte=1"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"gt=0"`
}

// PluginSettings locates and bounds action plugins.
type PluginSettings struct {
	Dir     string        `mapstructure:"dir" yaml:"dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// ActionSettings configures action dispatch.
type ActionSettings struct {
	// Cooldown suppresses repeat runs of the same gesture's action.
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown" validate:"gte=0"`
}

// EventSettings bounds the stored gesture event log.
type EventSettings struct {
	Keep int `mapstructure:"keep" yaml:"keep" validate:"gte=0"`
}

// MQTTSettings configures gesture event publishing.
type MQTTSettings struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker   string `mapstructure:"broker" yaml:"broker" validate:"required_if=Enabled true,omitempty,url"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	Topic    string `mapstructure:"topic" yaml:"topic" validate:"required_if=Enabled true"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	QoS      int    `mapstructure:"qos" yaml:"qos" validate:"gte=0,lte=2"`
	Retain   bool   `mapstructure:"retain" yaml:"retain"`
}

// TraySettings toggles the system tray icon.
type TraySettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level      string `mapstructure:"level" yaml:"level" validate:"oneof=trace debug info warn warning error"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DatabasePath returns the sqlite file inside the data directory.
func (s *Settings) DatabasePath() string {
	return filepath.Join(s.DataDir, "mudra.db")
}

// Load reads settings. An explicit path must exist; otherwise the working
// directory and $HOME/.mudra are searched and a missing file means defaults.
func Load(path string) (*Settings, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	settings.DataDir = expandHome(settings.DataDir)
	if settings.Plugins.Dir == "" {
		settings.Plugins.Dir = filepath.Join(settings.DataDir, "plugins")
	}
	settings.Plugins.Dir = expandHome(settings.Plugins.Dir)
	settings.Log.File = expandHome(settings.Log.File)

	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Used reports which config file Load would read, or "" when none is found.
func Used(path string) string {
	if path != "" {
		return path
	}
	for _, dir := range searchPaths() {
		for _, ext := range []string{".yaml", ".yml"} {
			candidate := filepath.Join(dir, FileName+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mudra"))
	}
	return paths
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

var validate = validator.New()

// Validate checks settings against their constraints.
func Validate(s *Settings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
