package provider

import "context"

// Provider abstracts an LLM inference backend capable of streaming,
// schema-constrained generation.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Stream performs one streaming generation call. The returned
	// channel receives Event values and is closed by the provider when
	// the stream completes or errors. The call is never retried by
	// callers; a failure surfaces as an EventError or an immediate
	// error return.
	Stream(ctx context.Context, req *GenerationRequest) (<-chan Event, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
