package api

// StreamEventType identifies the kind of a generation stream event.
type StreamEventType string

const (
	// EventFragmentDelta carries an incremental slice of the structured
	// generation output as it arrives from the provider.
	EventFragmentDelta StreamEventType = "fragment.delta"

	// EventFragmentCompleted is the terminal success event carrying the
	// fully assembled, schema-validated Fragment.
	EventFragmentCompleted StreamEventType = "fragment.completed"

	// EventFragmentFailed is the terminal failure event carrying the
	// generation error.
	EventFragmentFailed StreamEventType = "fragment.failed"
)

// StreamEvent is a single event in a generation stream. Delta is set on
// delta events, Fragment on the completed event, and Error on the
// failed event.
type StreamEvent struct {
	Type     StreamEventType `json:"type"`
	Delta    string          `json:"delta,omitempty"`
	Fragment *Fragment       `json:"fragment,omitempty"`
	Error    *APIError       `json:"error,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventFragmentCompleted || e.Type == EventFragmentFailed
}
