package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/markup"
	"github.com/skizzehq/skizze/pkg/provider"
	"github.com/skizzehq/skizze/pkg/template"
)

// DefaultTimeout is the wall-clock ceiling for one generation call.
const DefaultTimeout = 300 * time.Second

// Orchestrator issues schema-constrained generation calls and exposes
// the result as a live event stream. It holds no per-request state and
// is safe for concurrent use.
type Orchestrator struct {
	resolver *provider.Resolver
	registry *template.Registry
	timeout  time.Duration
}

// New creates an orchestrator over the given provider resolver and
// template registry. A timeout of zero selects DefaultTimeout.
func New(resolver *provider.Resolver, registry *template.Registry, timeout time.Duration) *Orchestrator {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		resolver: resolver,
		registry: registry,
		timeout:  timeout,
	}
}

// Stream issues one streaming generation call for the request. The
// returned channel carries delta events as output arrives, then exactly
// one terminal event: fragment.completed with the validated Fragment,
// or fragment.failed with a generation error. The channel is closed
// after the terminal event.
//
// An error return means the call could not be started (invalid request
// or backend rejection); nothing was streamed.
func (o *Orchestrator) Stream(ctx context.Context, req *api.CreateFragmentRequest) (<-chan api.StreamEvent, error) {
	if err := api.ValidateCreateFragmentRequest(req); err != nil {
		return nil, err
	}

	// The system prompt describing the template catalog is prepended to
	// the caller's conversation.
	messages := make([]api.Message, 0, len(req.Messages)+1)
	messages = append(messages, api.Message{
		Role:    "system",
		Content: template.ComposePrompt(o.registry),
	})
	messages = append(messages, req.Messages...)

	handle := o.resolver.Resolve(req.Model, req.Overrides)

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)

	upstream, err := handle.Stream(genCtx, messages, FragmentSchema())
	if err != nil {
		cancel()
		handle.Close()
		return nil, err
	}

	out := make(chan api.StreamEvent, 16)

	go func() {
		defer close(out)
		defer handle.Close()
		defer cancel()

		var buf strings.Builder
		var failed bool

		for ev := range upstream {
			switch ev.Type {
			case provider.EventTextDelta:
				buf.WriteString(ev.Delta)
				out <- api.StreamEvent{Type: api.EventFragmentDelta, Delta: ev.Delta}

			case provider.EventError:
				// Provider errors pass through verbatim; the call is
				// never retried.
				out <- api.StreamEvent{Type: api.EventFragmentFailed, Error: asAPIError(ev.Err)}
				failed = true

			case provider.EventDone:
				// Completion is decided below once the channel drains.
			}
		}
		if failed {
			return
		}

		if genCtx.Err() != nil && ctx.Err() == nil {
			out <- api.StreamEvent{
				Type:  api.EventFragmentFailed,
				Error: api.NewGenerationError("generation exceeded the " + o.timeout.String() + " ceiling"),
			}
			return
		}
		if ctx.Err() != nil {
			// Caller abandoned the request; nobody is listening.
			return
		}

		frag, err := o.decodeFragment(buf.String())
		if err != nil {
			slog.Warn("generation output rejected",
				"model", handle.Model(),
				"provider", handle.ProviderName(),
				"error", err.Error(),
			)
			out <- api.StreamEvent{Type: api.EventFragmentFailed, Error: asAPIError(err)}
			return
		}

		out <- api.StreamEvent{Type: api.EventFragmentCompleted, Fragment: frag}
	}()

	return out, nil
}

// decodeFragment strictly decodes the assembled stream output and
// validates it against the referenced template. Non-conforming output
// is rejected as a generation error, never coerced. Some backends wrap
// the structured output in a fenced code block despite the schema
// constraint, so a failed decode falls back to extracting the last
// ```json block before giving up.
func (o *Orchestrator) decodeFragment(raw string) (*api.Fragment, error) {
	frag, err := decodeStrict(raw)
	if err != nil {
		block, ok := markup.ExtractLastBlock(raw, "json")
		if ok {
			frag, err = decodeStrict(block)
		}
		if err != nil {
			return nil, api.NewGenerationError("output does not conform to the fragment schema: " + err.Error())
		}
	}

	tmpl, ok := o.registry.Get(frag.TemplateID)
	if !ok {
		return nil, api.NewGenerationError("output references unknown template " + frag.TemplateID)
	}

	if err := api.ValidateFragment(frag, &tmpl); err != nil {
		return nil, api.NewGenerationError("output does not conform to the fragment schema: " + err.Message)
	}

	// HTML entry files must form a minimal document. Valid markup is
	// replaced with its parser-normalized serialization; anything more
	// broken than that is surfaced, not repaired.
	if strings.HasSuffix(frag.FilePath, ".html") {
		result := markup.Validate(frag.Code)
		if !result.IsValid {
			return nil, api.NewValidationError("code", result.Error)
		}
		frag.Code = result.FixedMarkup
	}

	return frag, nil
}

func decodeStrict(raw string) (*api.Fragment, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var frag api.Fragment
	if err := dec.Decode(&frag); err != nil {
		return nil, err
	}
	// Decode stops after one value; anything but whitespace behind it
	// means the output was not a lone fragment object.
	if dec.More() {
		return nil, errors.New("trailing data after the fragment object")
	}
	return &frag, nil
}

// asAPIError normalizes any error into an APIError for the wire.
func asAPIError(err error) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return api.NewGenerationError(err.Error())
}
