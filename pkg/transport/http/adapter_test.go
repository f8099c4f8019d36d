package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skizzehq/skizze/pkg/access"
	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/storage"
	"github.com/skizzehq/skizze/pkg/transport"
)

// mockCreator is a configurable FragmentCreator for testing.
type mockCreator struct {
	events      []api.StreamEvent
	err         error
	errMidway   bool
	lastRequest *api.CreateFragmentRequest
}

func (m *mockCreator) CreateFragment(ctx context.Context, req *api.CreateFragmentRequest, w transport.StreamWriter) error {
	m.lastRequest = req
	if m.err != nil && !m.errMidway {
		return m.err
	}
	for _, event := range m.events {
		if err := w.WriteEvent(ctx, event); err != nil {
			return err
		}
	}
	if m.errMidway {
		return m.err
	}
	return nil
}

// mockProvisioner returns a canned result or error.
type mockProvisioner struct {
	result       *api.ExecutionResult
	err          error
	lastFragment *api.Fragment
}

func (m *mockProvisioner) Provision(ctx context.Context, frag *api.Fragment) (*api.ExecutionResult, error) {
	m.lastFragment = frag
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockStore is an in-memory ArtifactStore for testing.
type mockStore struct {
	artifacts map[string]*api.Artifact
	healthErr error
}

func (m *mockStore) GetArtifact(_ context.Context, id string) (*api.Artifact, error) {
	a, ok := m.artifacts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

func (m *mockStore) IncrementViewCount(_ context.Context, id string) (int, error) {
	a, ok := m.artifacts[id]
	if !ok {
		return 0, storage.ErrNotFound
	}
	a.ViewCount++
	return a.ViewCount, nil
}

func (m *mockStore) ListPublic(_ context.Context, limit int) ([]*api.Artifact, error) {
	var out []*api.Artifact
	for _, a := range m.artifacts {
		if a.IsPublic && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) HealthCheck(_ context.Context) error { return m.healthErr }
func (m *mockStore) Close() error                        { return nil }

func strPtr(s string) *string { return &s }

func seededStore() *mockStore {
	return &mockStore{artifacts: map[string]*api.Artifact{
		"art-public": {
			ID:        "art-public",
			UserID:    strPtr("user-1"),
			IsPublic:  true,
			ViewCount: 3,
			UpdatedAt: time.Now(),
		},
		"art-private": {
			ID:            "art-private",
			FingerprintID: strPtr("fp-1"),
			IsPublic:      false,
			UpdatedAt:     time.Now(),
		},
	}}
}

func newTestAdapter(creator transport.FragmentCreator, provisioner transport.FragmentProvisioner, store storage.ArtifactStore) *Adapter {
	return NewAdapter(creator, provisioner, store, nil, DefaultConfig())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	return resp
}

func fragmentRequest() api.CreateFragmentRequest {
	return api.CreateFragmentRequest{
		Messages: []api.Message{{Role: "user", Content: "a landing page"}},
		Model:    api.ModelDescriptor{ID: "test-model", Provider: "test"},
	}
}

func TestCreateFragmentStreamsEvents(t *testing.T) {
	creator := &mockCreator{
		events: []api.StreamEvent{
			{Type: api.EventFragmentDelta, Delta: `{"template`},
			{Type: api.EventFragmentDelta, Delta: `_id":"static-site"}`},
			{Type: api.EventFragmentCompleted, Fragment: &api.Fragment{TemplateID: "static-site"}},
		},
	}

	srv := httptest.NewServer(newTestAdapter(creator, nil, nil).Handler())
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/fragments", fragmentRequest())
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		"event: fragment.delta",
		"event: fragment.completed",
		"data: [DONE]",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("stream missing %q:\n%s", want, body)
		}
	}

	if creator.lastRequest == nil || creator.lastRequest.Model.ID != "test-model" {
		t.Error("creator did not receive the decoded request")
	}
}

func TestCreateFragmentInvalidJSONReturns400(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/fragments", "application/json", strings.NewReader("{invalid"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCreateFragmentWrongContentTypeReturns415(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/fragments", "text/plain", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnsupportedMediaType)
	}
}

func TestCreateFragmentBodyTooLargeReturns413(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodySize = 64
	adapter := NewAdapter(&mockCreator{}, nil, nil, nil, cfg)
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	big := api.CreateFragmentRequest{
		Messages: []api.Message{{Role: "user", Content: strings.Repeat("x", 1024)}},
		Model:    api.ModelDescriptor{ID: "m", Provider: "p"},
	}
	resp := postJSON(t, srv.URL+"/v1/fragments", big)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

func TestCreateFragmentErrorBeforeStreamingReturnsJSON(t *testing.T) {
	creator := &mockCreator{err: api.NewInvalidRequestError("messages", "messages must not be empty")}
	srv := httptest.NewServer(newTestAdapter(creator, nil, nil).Handler())
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/fragments", fragmentRequest())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("error type = %q, want %q", errResp.Error.Type, api.ErrorTypeInvalidRequest)
	}
}

func TestCreateFragmentErrorAfterStreamingEmitsFailedEvent(t *testing.T) {
	creator := &mockCreator{
		events:    []api.StreamEvent{{Type: api.EventFragmentDelta, Delta: "partial"}},
		err:       api.NewServerError("stream broke"),
		errMidway: true,
	}
	srv := httptest.NewServer(newTestAdapter(creator, nil, nil).Handler())
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/fragments", fragmentRequest())
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "event: fragment.failed") {
		t.Errorf("stream missing failed event:\n%s", body)
	}
	if !strings.Contains(string(body), "stream broke") {
		t.Errorf("failed event missing error message:\n%s", body)
	}
}

func TestProvisionSandboxReturnsResult(t *testing.T) {
	provisioner := &mockProvisioner{
		result: &api.ExecutionResult{
			SandboxID:  "sbx-static-site-1",
			TemplateID: "static-site",
			URL:        "https://sbx-static-site-1.example.com",
		},
	}
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, provisioner, nil).Handler())
	defer srv.Close()

	req := api.ProvisionRequest{Fragment: api.Fragment{
		TemplateID: "static-site",
		Code:       "<html></html>",
		FilePath:   "index.html",
	}}
	resp := postJSON(t, srv.URL+"/v1/sandboxes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got api.ExecutionResult
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.URL != "https://sbx-static-site-1.example.com" {
		t.Errorf("url = %q, want preview URL", got.URL)
	}
	if provisioner.lastFragment == nil || provisioner.lastFragment.TemplateID != "static-site" {
		t.Error("provisioner did not receive the decoded fragment")
	}
}

func TestProvisionSandboxErrorReturns502(t *testing.T) {
	provisioner := &mockProvisioner{err: api.NewProvisioningError("sandbox never became ready")}
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, provisioner, nil).Handler())
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/sandboxes", api.ProvisionRequest{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
}

func TestListArtifactsReturnsOnlyPublic(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/artifacts")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var got []*api.Artifact
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "art-public" {
		t.Errorf("got %d artifacts, want only art-public", len(got))
	}
}

func TestListArtifactsRejectsBadLimit(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/artifacts?limit=zero")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestGetArtifactPublic(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/artifacts/art-public")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestGetArtifactNotFound(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/artifacts/no-such-artifact")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestGetArtifactPrivateDeniedWithoutIdentity(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/artifacts/art-private")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}

	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Code != api.CodePrivateArtifact {
		t.Errorf("error code = %q, want %q", errResp.Error.Code, api.CodePrivateArtifact)
	}
}

func TestGetArtifactPrivateOwnerAllowed(t *testing.T) {
	adapter := newTestAdapter(&mockCreator{}, nil, seededStore())

	// Simulate the identity middleware having resolved the owning visitor.
	withOwner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := access.WithActor(r.Context(), access.Visitor("fp-1"))
		adapter.Handler().ServeHTTP(w, r.WithContext(ctx))
	})
	srv := httptest.NewServer(withOwner)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/artifacts/art-private")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRecordViewIncrementsCount(t *testing.T) {
	store := seededStore()
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, store).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/artifacts/art-public/view", "application/json", nil)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	var got api.ViewCountResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.ViewCount != 4 {
		t.Errorf("view_count = %d, want 4", got.ViewCount)
	}
	if got.ID != "art-public" {
		t.Errorf("id = %q, want art-public", got.ID)
	}
}

func TestRecordViewNotFound(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/artifacts/missing/view", "application/json", nil)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestListModels(t *testing.T) {
	models := []api.ModelDescriptor{
		{ID: "gpt-test", Name: "GPT Test", Provider: "openai"},
		{ID: "local-test", Provider: "vllm"},
	}
	adapter := NewAdapter(&mockCreator{}, nil, nil, models, DefaultConfig())
	srv := httptest.NewServer(adapter.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/models")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var got []api.ModelDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "gpt-test" {
		t.Errorf("got %+v, want configured models", got)
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHealthzUnhealthyStore(t *testing.T) {
	store := seededStore()
	store.healthErr = io.ErrUnexpectedEOF
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, store).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCreator{}, nil, seededStore()).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/artifacts/art-public", nil)
	req.Header.Set("X-Request-ID", "trace-me-1234")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "trace-me-1234" {
		t.Errorf("X-Request-ID = %q, want trace-me-1234", got)
	}
}
