package generate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/provider"
	"github.com/skizzehq/skizze/pkg/template"
)

// scriptedProvider replays a fixed event sequence and records the
// request it received.
type scriptedProvider struct {
	events  []provider.Event
	lastReq *provider.GenerationRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Stream(ctx context.Context, req *provider.GenerationRequest) (<-chan provider.Event, error) {
	p.lastReq = req
	ch := make(chan provider.Event, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Close() error { return nil }

func testRegistry(t *testing.T) *template.Registry {
	t.Helper()
	r, err := template.New(api.Template{
		ID:            "static-site",
		DisplayName:   "Static site",
		EntryFilePath: "index.html",
		Port:          80,
		Instructions:  "Produce a single self-contained HTML page.",
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func deltasFor(raw string) []provider.Event {
	var events []provider.Event
	for len(raw) > 0 {
		n := 7
		if n > len(raw) {
			n = len(raw)
		}
		events = append(events, provider.Event{Type: provider.EventTextDelta, Delta: raw[:n]})
		raw = raw[n:]
	}
	return append(events, provider.Event{Type: provider.EventDone})
}

func newTestOrchestrator(t *testing.T, p *scriptedProvider) *Orchestrator {
	t.Helper()
	resolver := provider.NewResolver(nil, provider.Endpoint{}, func(string, provider.Endpoint) provider.Provider {
		return p
	})
	return New(resolver, testRegistry(t), 0)
}

func drain(t *testing.T, ch <-chan api.StreamEvent) []api.StreamEvent {
	t.Helper()
	var events []api.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	if len(events) == 0 {
		t.Fatal("no events received")
	}
	return events
}

func validRequest() *api.CreateFragmentRequest {
	return &api.CreateFragmentRequest{
		Messages: []api.Message{{Role: "user", Content: "make a landing page"}},
		Model:    api.ModelDescriptor{ID: "gpt-4o", Provider: "openai"},
	}
}

const validFragmentJSON = `{"template_id":"static-site","code":"<html><head></head><body>hi</body></html>","file_path":"index.html","has_additional_dependencies":false,"additional_dependencies":[],"install_command":""}`

func TestStream_CompletesWithValidatedFragment(t *testing.T) {
	p := &scriptedProvider{events: deltasFor(validFragmentJSON)}
	o := newTestOrchestrator(t, p)

	ch, err := o.Stream(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	events := drain(t, ch)

	last := events[len(events)-1]
	if last.Type != api.EventFragmentCompleted {
		t.Fatalf("terminal event = %+v", last)
	}
	if last.Fragment == nil || last.Fragment.TemplateID != "static-site" {
		t.Errorf("fragment = %+v", last.Fragment)
	}

	// Deltas reassemble to the raw output.
	var buf strings.Builder
	for _, ev := range events[:len(events)-1] {
		if ev.Type != api.EventFragmentDelta {
			t.Fatalf("non-delta before terminal: %+v", ev)
		}
		buf.WriteString(ev.Delta)
	}
	if buf.String() != validFragmentJSON {
		t.Errorf("assembled deltas = %q", buf.String())
	}

	// The provider call carries the system prompt and schema.
	if p.lastReq.Schema == nil || p.lastReq.Schema.Name != "fragment" {
		t.Errorf("schema = %+v", p.lastReq.Schema)
	}
	if len(p.lastReq.Messages) != 2 || p.lastReq.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", p.lastReq.Messages)
	}
	if !strings.Contains(p.lastReq.Messages[0].Content, "static-site") {
		t.Error("system prompt does not mention the template")
	}
}

func TestStream_FenceWrappedOutputDecodedViaExtraction(t *testing.T) {
	raw := "Let me think about the layout first.\n" +
		"```json\n{\"not\": \"this one\"}\n```\n" +
		"Here is the final page:\n" +
		"```json\n" + validFragmentJSON + "\n```\n"
	p := &scriptedProvider{events: deltasFor(raw)}
	o := newTestOrchestrator(t, p)

	ch, err := o.Stream(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	events := drain(t, ch)

	last := events[len(events)-1]
	if last.Type != api.EventFragmentCompleted {
		t.Fatalf("terminal event = %+v", last)
	}
	if last.Fragment.TemplateID != "static-site" {
		t.Errorf("fragment = %+v", last.Fragment)
	}
}

func TestStream_HTMLEntryFileNormalized(t *testing.T) {
	p := &scriptedProvider{events: deltasFor(validFragmentJSON)}
	o := newTestOrchestrator(t, p)

	ch, err := o.Stream(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	events := drain(t, ch)

	last := events[len(events)-1]
	if last.Type != api.EventFragmentCompleted {
		t.Fatalf("terminal event = %+v", last)
	}
	if !strings.Contains(last.Fragment.Code, "<body>hi</body>") {
		t.Errorf("normalized code = %q", last.Fragment.Code)
	}
}

func TestStream_StructurallyInvalidMarkupRejected(t *testing.T) {
	raw := `{"template_id":"static-site","code":"<body>hi</body>","file_path":"index.html","has_additional_dependencies":false,"additional_dependencies":[],"install_command":""}`
	p := &scriptedProvider{events: deltasFor(raw)}
	o := newTestOrchestrator(t, p)

	ch, err := o.Stream(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	events := drain(t, ch)

	last := events[len(events)-1]
	if last.Type != api.EventFragmentFailed {
		t.Fatalf("terminal event = %+v", last)
	}
	if last.Error.Type != api.ErrorTypeValidationError {
		t.Errorf("error type = %q, want %q", last.Error.Type, api.ErrorTypeValidationError)
	}
	if !strings.Contains(last.Error.Message, "missing") {
		t.Errorf("message = %q, want a missing-element diagnostic", last.Error.Message)
	}
}

func TestStream_RejectsNonConformingOutput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "sure, here is your page: <html></html>"},
		{"trailing prose", validFragmentJSON + "\nThat should cover everything you asked for."},
		{"unknown field", `{"template_id":"static-site","code":"x","file_path":"index.html","has_additional_dependencies":false,"additional_dependencies":[],"install_command":"","extra":1}`},
		{"unknown template", `{"template_id":"nope","code":"x","file_path":"index.html","has_additional_dependencies":false,"additional_dependencies":[],"install_command":""}`},
		{"flag mismatch", `{"template_id":"static-site","code":"x","file_path":"index.html","has_additional_dependencies":true,"additional_dependencies":[],"install_command":""}`},
		{"wrong entry path", `{"template_id":"static-site","code":"x","file_path":"main.py","has_additional_dependencies":false,"additional_dependencies":[],"install_command":""}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator(t, &scriptedProvider{events: deltasFor(tc.raw)})

			ch, err := o.Stream(context.Background(), validRequest())
			if err != nil {
				t.Fatalf("Stream: %v", err)
			}
			events := drain(t, ch)

			last := events[len(events)-1]
			if last.Type != api.EventFragmentFailed {
				t.Fatalf("terminal event = %+v", last)
			}
			if last.Error == nil || last.Error.Type != api.ErrorTypeGenerationError {
				t.Errorf("error = %+v", last.Error)
			}
		})
	}
}

func TestStream_ProviderErrorPassesThroughVerbatim(t *testing.T) {
	p := &scriptedProvider{events: []provider.Event{
		{Type: provider.EventTextDelta, Delta: `{"temp`},
		{Type: provider.EventError, Err: api.NewGenerationError("backend exploded mid-flight")},
	}}
	o := newTestOrchestrator(t, p)

	ch, err := o.Stream(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	events := drain(t, ch)

	last := events[len(events)-1]
	if last.Type != api.EventFragmentFailed {
		t.Fatalf("terminal event = %+v", last)
	}
	if last.Error.Message != "backend exploded mid-flight" {
		t.Errorf("message = %q", last.Error.Message)
	}
}

func TestStream_InvalidRequestRejectedBeforeCall(t *testing.T) {
	p := &scriptedProvider{}
	o := newTestOrchestrator(t, p)

	_, err := o.Stream(context.Background(), &api.CreateFragmentRequest{
		Model: api.ModelDescriptor{ID: "gpt-4o", Provider: "openai"},
	})
	if err == nil {
		t.Fatal("expected error for empty messages")
	}
	if p.lastReq != nil {
		t.Error("provider was called for an invalid request")
	}
}

// blockingProvider never produces events until its context expires.
type blockingProvider struct{}

func (p *blockingProvider) Name() string { return "blocking" }

func (p *blockingProvider) Stream(ctx context.Context, req *provider.GenerationRequest) (<-chan provider.Event, error) {
	ch := make(chan provider.Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (p *blockingProvider) Close() error { return nil }

func TestStream_TimeoutSurfacesAsGenerationError(t *testing.T) {
	resolver := provider.NewResolver(nil, provider.Endpoint{}, func(string, provider.Endpoint) provider.Provider {
		return &blockingProvider{}
	})
	o := New(resolver, testRegistry(t), 20*time.Millisecond)

	ch, err := o.Stream(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	events := drain(t, ch)

	last := events[len(events)-1]
	if last.Type != api.EventFragmentFailed {
		t.Fatalf("terminal event = %+v", last)
	}
	if !strings.Contains(last.Error.Message, "ceiling") {
		t.Errorf("message = %q", last.Error.Message)
	}
}
