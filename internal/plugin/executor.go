package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimeout is returned when a plugin does not finish within the executor timeout.
var ErrTimeout = errors.New("plugin execution timeout")

// Runner executes a plugin request.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

// Executor handles the execution of plugins with timeout support.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor with the given per-call timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{
		timeout: timeout,
	}
}

// Execute runs a plugin with the given request and returns the response.
// The request is written to the plugin's stdin as JSON and its stdout is
// parsed as a Response. The call is bounded by both ctx and the executor timeout.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}

	if err != nil {
		if stderrStr := stderr.String(); stderrStr != "" {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, stderrStr)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}
