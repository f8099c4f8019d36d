package sandbox

import (
	"context"
	"time"
)

// Environment is one running sandbox.
type Environment struct {
	// ID uniquely identifies the environment at its backend.
	ID string

	// Host is the externally reachable hostname serving the fragment,
	// without scheme or port.
	Host string

	// ControlURL is the base URL of the environment's control API used
	// for command execution and file writes.
	ControlURL string
}

// EnvironmentCreator provisions isolated execution environments.
// Implementations create an environment bound to an execution template
// and a fixed lifetime after which the backend reclaims it.
type EnvironmentCreator interface {
	Create(ctx context.Context, templateID string, lifetime time.Duration) (*Environment, error)
}

// CommandResult is the outcome of one command run inside an
// environment.
type CommandResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// commandRequest is the control API body for command execution.
type commandRequest struct {
	Command string `json:"command"`
}

// writeFileRequest is the control API body for file writes.
type writeFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
