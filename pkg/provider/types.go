package provider

import (
	"encoding/json"

	"github.com/skizzehq/skizze/pkg/api"
)

// GenerationRequest is the backend-facing request for one structured
// generation call. It contains only what the provider needs, stripped
// of transport concerns.
type GenerationRequest struct {
	Model    string        `json:"model"`
	Messages []api.Message `json:"messages"`

	// Schema constrains the output to a JSON document matching the
	// given schema. Nil means unconstrained text.
	Schema *OutputSchema `json:"schema,omitempty"`
}

// OutputSchema describes the JSON schema the backend must conform to.
type OutputSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

// EventType classifies a streaming event from the backend.
type EventType int

const (
	EventTextDelta EventType = iota // Incremental output content
	EventDone                       // Stream finished
	EventError                      // Stream error
)

// Event is a single streaming event from the backend.
type Event struct {
	// Type indicates what kind of event this is.
	Type EventType

	// Delta contains incremental output data.
	Delta string

	// Err is populated if the stream encountered an error.
	Err error
}
