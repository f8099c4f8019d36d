package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/skizzehq/skizze/pkg/access"
	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/observability"
	"github.com/skizzehq/skizze/pkg/storage"
	"github.com/skizzehq/skizze/pkg/transport"
)

// defaultListLimit bounds the public artifact listing when the client
// does not ask for a specific page size.
const defaultListLimit = 50

// maxListLimit caps the page size a client may request.
const maxListLimit = 200

// Adapter serves the generation and artifact API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	creator     transport.FragmentCreator
	provisioner transport.FragmentProvisioner
	store       storage.ArtifactStore
	models      []api.ModelDescriptor
	mux         *http.ServeMux
	config      Config
}

// Config holds configuration for the HTTP adapter. Listener address and
// shutdown behavior belong to the Server, not the adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
	}
}

// NewAdapter creates an HTTP adapter over the given components.
// The provisioner and store may be nil; their endpoints then report the
// operation as unavailable. Middleware is applied to the
// FragmentCreator in the given order.
func NewAdapter(creator transport.FragmentCreator, provisioner transport.FragmentProvisioner, store storage.ArtifactStore, models []api.ModelDescriptor, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		creator = transport.Chain(middlewares...)(creator)
	}

	a := &Adapter{
		creator:     creator,
		provisioner: provisioner,
		store:       store,
		models:      models,
		mux:         http.NewServeMux(),
		config:      cfg,
	}

	a.mux.HandleFunc("POST /v1/fragments", a.handleCreateFragment)
	a.mux.HandleFunc("POST /v1/sandboxes", a.handleProvisionSandbox)
	a.mux.HandleFunc("GET /v1/artifacts", a.handleListArtifacts)
	a.mux.HandleFunc("GET /v1/artifacts/{id}", a.handleGetArtifact)
	a.mux.HandleFunc("POST /v1/artifacts/{id}/view", a.handleRecordView)
	a.mux.HandleFunc("GET /v1/models", a.handleListModels)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to
// integrate with an http.Server or test with httptest. The returned
// handler includes HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware propagates the X-Request-ID header. If the
// client sent one it is forwarded into the context; after the handler
// runs, the context's request ID (set by the transport-level RequestID
// middleware) is added to the response headers.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// handleCreateFragment handles POST /v1/fragments. The response is
// always an SSE stream of fragment events.
func (a *Adapter) handleCreateFragment(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[api.CreateFragmentRequest](w, r, a.config.MaxBodySize)
	if !ok {
		return
	}

	rw := newSSEStreamWriter(w)
	if err := a.creator.CreateFragment(r.Context(), req, rw); err != nil {
		a.writeHandlerError(w, rw, err)
	}
}

// handleProvisionSandbox handles POST /v1/sandboxes. The fragment is
// re-validated and deployed; the result is returned as plain JSON.
func (a *Adapter) handleProvisionSandbox(w http.ResponseWriter, r *http.Request) {
	if a.provisioner == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "sandbox provisioning is not available (no provisioner configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	req, ok := decodeBody[api.ProvisionRequest](w, r, a.config.MaxBodySize)
	if !ok {
		return
	}

	result, err := a.provisioner.Provision(r.Context(), &req.Fragment)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleListArtifacts handles GET /v1/artifacts. Only public artifacts
// are listed, regardless of the caller's identity.
func (a *Adapter) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "artifact listing is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("limit", "limit must be a positive integer"),
				http.StatusBadRequest,
			)
			return
		}
		limit = min(n, maxListLimit)
	}

	artifacts, err := a.store.ListPublic(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(artifacts)
}

// handleGetArtifact handles GET /v1/artifacts/{id}. Private artifacts
// are visible only to their owner; a denied request receives the marked
// forbidden error so clients can render the private-artifact notice.
func (a *Adapter) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "artifact retrieval is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	id := r.PathValue("id")
	artifact, err := a.store.GetArtifact(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteAPIError(w, api.NewNotFoundError("artifact "+id+" not found"))
			return
		}
		writeError(w, err)
		return
	}

	actor, hasActor := access.ActorFromContext(r.Context())
	if !access.CanView(actor, hasActor, artifact) {
		transport.WriteAPIError(w, access.ForbiddenError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(artifact)
}

// handleRecordView handles POST /v1/artifacts/{id}/view.
func (a *Adapter) handleRecordView(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "view recording is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	id := r.PathValue("id")
	count, err := a.store.IncrementViewCount(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteAPIError(w, api.NewNotFoundError("artifact "+id+" not found"))
			return
		}
		writeError(w, err)
		return
	}

	observability.ArtifactViewsTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.ViewCountResponse{ID: id, ViewCount: count})
}

// handleListModels handles GET /v1/models.
func (a *Adapter) handleListModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.models)
}

// handleHealth handles GET /healthz.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		if err := a.store.HealthCheck(r.Context()); err != nil {
			transport.WriteErrorResponse(w,
				api.NewServerError("storage unhealthy: "+err.Error()),
				http.StatusServiceUnavailable,
			)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// decodeBody enforces the Content-Type and body-size limits, then
// decodes the JSON request body. On failure it writes the error
// response and returns ok=false.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, maxBodySize int64) (*T, bool) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", maxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return nil, false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return nil, false
	}

	return &req, true
}

// writeError writes a non-streaming error response, unwrapping APIError
// when possible.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		transport.WriteAPIError(w, apiErr)
		return
	}
	transport.WriteAPIError(w, api.NewServerError(err.Error()))
}

// writeHandlerError writes an error from the generation handler. If
// streaming has already started, it sends a fragment.failed event on
// the open stream. Otherwise it writes a standard JSON error response.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, rw *sseStreamWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError(err.Error())
	}

	if rw.hasStartedStreaming() {
		rw.WriteEvent(context.Background(), api.StreamEvent{
			Type:  api.EventFragmentFailed,
			Error: apiErr,
		})
		return
	}

	transport.WriteAPIError(w, apiErr)
}
