package transport

import (
	"context"

	"github.com/skizzehq/skizze/pkg/api"
)

// FragmentCreator handles the core generate-fragment operation. The
// implementation receives a request and writes the live event stream
// (deltas then one terminal event) to the StreamWriter.
type FragmentCreator interface {
	CreateFragment(ctx context.Context, req *api.CreateFragmentRequest, w StreamWriter) error
}

// FragmentCreatorFunc is an adapter that allows using an ordinary
// function as a FragmentCreator.
type FragmentCreatorFunc func(ctx context.Context, req *api.CreateFragmentRequest, w StreamWriter) error

// CreateFragment calls f(ctx, req, w).
func (f FragmentCreatorFunc) CreateFragment(ctx context.Context, req *api.CreateFragmentRequest, w StreamWriter) error {
	return f(ctx, req, w)
}

// FragmentProvisioner turns a validated fragment into a running
// deployment. Implemented by the sandbox provisioner.
type FragmentProvisioner interface {
	Provision(ctx context.Context, frag *api.Fragment) (*api.ExecutionResult, error)
}

// StreamWriter abstracts streamed output for the handler. The transport
// layer creates one per request; the handler emits events through it.
//
// WriteEvent returns an error when called after a terminal event
// (fragment.completed or fragment.failed) has been written.
type StreamWriter interface {
	// WriteEvent sends a single streaming event.
	WriteEvent(ctx context.Context, event api.StreamEvent) error

	// Flush ensures buffered data is sent to the client. Returns an
	// error if the client has disconnected.
	Flush() error
}
