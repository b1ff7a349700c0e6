package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (testing.T.Chdir is unavailable before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mudra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	s, err := Load("")
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".mudra"), s.DataDir)
	assert.Equal(t, filepath.Join(home, ".mudra", "plugins"), s.Plugins.Dir)
	assert.Equal(t, filepath.Join(home, ".mudra", "mudra.db"), s.DatabasePath())
	assert.Equal(t, "127.0.0.1:8080", s.Server.Addr)
	assert.Equal(t, 640, s.Camera.Width)
	assert.Equal(t, 5, s.Pipeline.IdleFPS)
	assert.Equal(t, 15, s.Pipeline.ActiveFPS)
	assert.Equal(t, 2*time.Second, s.Pipeline.IdleTimeout)
	assert.Equal(t, 5*time.Second, s.Plugins.Timeout)
	assert.Equal(t, 2*time.Second, s.Actions.Cooldown)
	assert.False(t, s.MQTT.Enabled)
	assert.Equal(t, "mudra/gesture", s.MQTT.Topic)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/mudra-test
server:
  addr: ":9090"
pipeline:
  active_fps: 30
  idle_timeout: 500ms
plugins:
  dir: /opt/plugins
mqtt:
  enabled: true
  broker: tcp://broker:1883
  topic: home/gesture
  qos: 1
log:
  level: debug
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/mudra-test", s.DataDir)
	assert.Equal(t, ":9090", s.Server.Addr)
	assert.Equal(t, 30, s.Pipeline.ActiveFPS)
	assert.Equal(t, 500*time.Millisecond, s.Pipeline.IdleTimeout)
	assert.Equal(t, "/opt/plugins", s.Plugins.Dir)
	assert.True(t, s.MQTT.Enabled)
	assert.Equal(t, "home/gesture", s.MQTT.Topic)
	assert.Equal(t, 1, s.MQTT.QoS)
	assert.Equal(t, "debug", s.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 480, s.Camera.Height)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("MUDRA_SERVER_ADDR", "0.0.0.0:7070")
	t.Setenv("MUDRA_DETECTOR_MOCK", "true")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7070", s.Server.Addr)
	assert.True(t, s.Detector.Mock)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [\n"))
		assert.Error(t, err)
	})

	t.Run("active fps below idle fps", func(t *testing.T) {
		_, err := Load(writeConfig(t, "pipeline:\n  idle_fps: 10\n  active_fps: 5\n"))
		assert.ErrorContains(t, err, "ActiveFPS")
	})

	t.Run("mqtt enabled without topic", func(t *testing.T) {
		_, err := Load(writeConfig(t, "mqtt:\n  enabled: true\n  topic: \"\"\n"))
		assert.ErrorContains(t, err, "Topic")
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log:\n  level: chatty\n"))
		assert.ErrorContains(t, err, "Level")
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "mudra.yaml")

	require.NoError(t, WriteDefault(path, false))
	assert.ErrorContains(t, WriteDefault(path, false), "already exists")
	require.NoError(t, WriteDefault(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "pipeline")
	assert.Contains(t, string(data), "idle_timeout: 2s")

	// The written file loads back to the defaults.
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, s.Pipeline.IdleTimeout)
}

func TestUsed(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())

	assert.Empty(t, Used(""))
	assert.Equal(t, "/explicit.yaml", Used("/explicit.yaml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mudra.yaml"), []byte("{}"), 0o644))
	assert.Equal(t, filepath.Join(".", "mudra.yaml"), Used(""))
}
