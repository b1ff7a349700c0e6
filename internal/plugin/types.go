// Package plugin discovers action plugins and runs them when a gesture is recognized.
package plugin

import (
	"encoding/json"

	"github.com/ayusman/mudra/internal/gesture"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name" validate:"required"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable" validate:"required"`
	Actions      []string        `json:"actions" validate:"required,min=1,dive,required"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest lists action.
func (m *Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action     string          `json:"action"`
	Gesture    gesture.Label   `json:"gesture"`
	Confidence float64         `json:"confidence"`
	Message    string          `json:"message,omitempty"`
	Config     json.RawMessage `json:"config"`
	Params     json.RawMessage `json:"params"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
