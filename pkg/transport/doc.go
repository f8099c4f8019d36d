// Package transport defines the handler interfaces and middleware
// chain for the HTTP/SSE transport layer.
//
// The transport layer bridges external clients and the generation
// pipeline. It deserializes incoming requests into the core types in
// pkg/api, dispatches them, and serializes results back as streamed
// SSE events or plain JSON.
//
// FragmentCreator is the contract between transport and the generation
// orchestrator; the StreamWriter abstraction lets the handler emit
// stream events without knowing the wire protocol. Middleware wraps
// FragmentCreator with panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog.
package transport
