// Package main provides a keyboard plugin. It sends keystrokes for a
// recognized gesture, or types the text of a recognized sign.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

// KeystrokeParams defines parameters for keystroke and shortcut actions.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// appleModifiers maps user-friendly modifier names to AppleScript equivalents.
var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdoModifiers maps modifier names to xdotool key names.
var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var err error
	switch req.Action {
	case "keystroke", "shortcut":
		err = handleKeystroke(req.Params)
	case "type-message":
		err = handleTypeMessage(&req)
	default:
		err = fmt.Errorf("unknown action: %s", req.Action)
	}
	if err != nil {
		err = fmt.Errorf("action %s failed: %w", req.Action, err)
	}
	writeResponse(err)
}

func handleKeystroke(params json.RawMessage) error {
	var p KeystrokeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Key == "" {
		return errors.New("key is required")
	}

	if runtime.GOOS == "darwin" {
		return run("osascript", "-e", keystrokeScript(p.Key, p.Modifiers))
	}
	return run("xdotool", "key", xdoChord(p.Key, p.Modifiers))
}

// handleTypeMessage types the sign's text, falling back to the gesture label.
func handleTypeMessage(req *plugin.Request) error {
	text := req.Message
	if text == "" {
		text = string(req.Gesture)
	}
	if text == "" {
		return errors.New("nothing to type")
	}
	text += " "

	if runtime.GOOS == "darwin" {
		return run("osascript", "-e",
			fmt.Sprintf(`tell application "System Events" to keystroke %q`, text))
	}
	return run("xdotool", "type", "--", text)
}

// keystrokeScript generates an AppleScript for the given key and modifiers.
func keystrokeScript(key string, modifiers []string) string {
	var mods []string
	for _, mod := range modifiers {
		if m, ok := appleModifiers[strings.ToLower(mod)]; ok {
			mods = append(mods, m)
		}
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke %q`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke %q using {%s}`, key, strings.Join(mods, ", "))
}

// xdoChord builds an xdotool chord such as "ctrl+shift+t".
func xdoChord(key string, modifiers []string) string {
	var parts []string
	for _, mod := range modifiers {
		if m, ok := xdoModifiers[strings.ToLower(mod)]; ok {
			parts = append(parts, m)
		}
	}
	return strings.Join(append(parts, key), "+")
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// writeResponse writes the plugin response to stdout.
func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
