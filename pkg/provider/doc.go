// Package provider abstracts LLM inference backends for structured
// fragment generation. Each adapter handles its own backend protocol
// internally; the resolver binds a model descriptor to a configured
// endpoint and returns an invokable handle.
package provider
