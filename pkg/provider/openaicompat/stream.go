package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/provider"
)

// parseSSEStream reads Chat Completions SSE chunks from the given reader,
// translates each chunk to provider events, and sends them on ch.
// The channel is NOT closed by this function; the caller is responsible
// for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed chunks are logged and skipped. Context cancellation stops
// reading immediately.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- provider.Event) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		// Check for context cancellation between lines.
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// SSE lines that don't start with "data: " are ignored
		// (e.g., empty lines, comments starting with ":").
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")

		// The [DONE] sentinel ends the stream. Completion itself is
		// signaled by the finish_reason chunk before it.
		if payload == "[DONE]" {
			return
		}

		var chunk ChatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"error", err.Error(),
				"data", truncate(payload, 200),
			)
			continue
		}

		translateChunk(&chunk, ch)
	}

	// Scanner error (e.g., connection dropped).
	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		ch <- provider.Event{
			Type: provider.EventError,
			Err:  api.NewGenerationError("SSE stream read error: " + err.Error()),
		}
	}
}

// translateChunk converts a single ChatCompletionChunk into provider
// events sent on the channel.
func translateChunk(chunk *ChatCompletionChunk, ch chan<- provider.Event) {
	// No choices means nothing to translate (e.g., a usage-only final
	// chunk sent with stream_options.include_usage).
	if len(chunk.Choices) == 0 {
		return
	}

	choice := chunk.Choices[0]
	delta := choice.Delta

	// finish_reason signals completion for this choice. Any trailing
	// content in the same chunk is still delivered.
	if choice.FinishReason != nil {
		if delta.Content != nil && *delta.Content != "" {
			ch <- provider.Event{
				Type:  provider.EventTextDelta,
				Delta: *delta.Content,
			}
		}
		if reason := *choice.FinishReason; reason == "length" || reason == "content_filter" {
			ch <- provider.Event{
				Type: provider.EventError,
				Err:  api.NewGenerationError("generation stopped early: " + reason),
			}
			return
		}
		ch <- provider.Event{Type: provider.EventDone}
		return
	}

	if delta.Content != nil && *delta.Content != "" {
		ch <- provider.Event{
			Type:  provider.EventTextDelta,
			Delta: *delta.Content,
		}
	}

	// Role-only first chunks and empty deltas carry no output; skip.
}

// truncate limits a string to maxLen characters for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
