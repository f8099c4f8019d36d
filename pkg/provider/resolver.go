package provider

import (
	"context"

	"github.com/skizzehq/skizze/pkg/api"
)

// Endpoint holds the connection settings for one inference provider.
type Endpoint struct {
	APIKey  string
	BaseURL string
}

// Factory constructs a Provider for a resolved endpoint. It must not
// perform network calls; credential problems surface on the first call
// of the returned provider.
type Factory func(providerID string, ep Endpoint) Provider

// Resolver binds model descriptors to configured provider endpoints.
// Construction is pure: resolution never touches the network, and a
// missing credential is reported by the handle's first call rather than
// here.
type Resolver struct {
	endpoints map[string]Endpoint
	defaults  Endpoint
	factory   Factory
}

// NewResolver creates a resolver over per-provider endpoints with a
// process-wide default used when a provider has no entry or an entry
// leaves fields empty.
func NewResolver(endpoints map[string]Endpoint, defaults Endpoint, factory Factory) *Resolver {
	if endpoints == nil {
		endpoints = make(map[string]Endpoint)
	}
	return &Resolver{endpoints: endpoints, defaults: defaults, factory: factory}
}

// Handle is an invokable generation client bound to a specific model.
type Handle struct {
	provider Provider
	model    string
}

// Resolve binds a model descriptor to its provider endpoint, applying
// per-request overrides first, then the provider's configured entry,
// then the process-wide defaults.
func (r *Resolver) Resolve(desc api.ModelDescriptor, overrides *api.ClientOverrides) *Handle {
	ep := r.endpoints[desc.Provider]

	if ep.APIKey == "" {
		ep.APIKey = r.defaults.APIKey
	}
	if ep.BaseURL == "" {
		ep.BaseURL = r.defaults.BaseURL
	}

	if overrides != nil {
		if overrides.APIKey != "" {
			ep.APIKey = overrides.APIKey
		}
		if overrides.BaseURL != "" {
			ep.BaseURL = overrides.BaseURL
		}
	}

	return &Handle{
		provider: r.factory(desc.Provider, ep),
		model:    desc.ID,
	}
}

// Model returns the model id the handle is bound to.
func (h *Handle) Model() string {
	return h.model
}

// ProviderName returns the underlying provider identifier.
func (h *Handle) ProviderName() string {
	return h.provider.Name()
}

// Stream issues one streaming generation call for the bound model.
func (h *Handle) Stream(ctx context.Context, messages []api.Message, schema *OutputSchema) (<-chan Event, error) {
	return h.provider.Stream(ctx, &GenerationRequest{
		Model:    h.model,
		Messages: messages,
		Schema:   schema,
	})
}

// Close releases the bound provider's resources.
func (h *Handle) Close() error {
	return h.provider.Close()
}
