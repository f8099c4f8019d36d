package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
	"github.com/skizzehq/skizze/pkg/provider"
)

// Config holds the connection settings for one Chat Completions backend.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.openai.com".
	// The /v1/chat/completions path is appended by the client.
	BaseURL string

	// APIKey is sent as a Bearer token when non-empty. Local backends
	// commonly run without one.
	APIKey string

	// Timeout bounds non-streaming HTTP calls. Defaults to 120s.
	Timeout time.Duration
}

// Client implements provider.Provider against an OpenAI-compatible
// Chat Completions endpoint.
type Client struct {
	name   string
	cfg    Config
	client *http.Client
}

// Ensure Client implements provider.Provider at compile time.
var _ provider.Provider = (*Client)(nil)

// New creates a client for the named provider. Construction is pure:
// a missing base URL or rejected credential surfaces on the first
// Stream call, never here.
func New(name string, cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Client{
		name:   name,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.name
}

// Stream performs streaming inference against the Chat Completions
// endpoint. It returns a channel of events that is closed when the
// stream completes, errors, or the context is cancelled.
//
// The HTTP client timeout is not applied for streaming requests because
// a stream can legitimately last longer than any fixed timeout.
// Lifecycle control relies on context cancellation instead.
func (c *Client) Stream(ctx context.Context, req *provider.GenerationRequest) (<-chan provider.Event, error) {
	if c.cfg.BaseURL == "" {
		return nil, api.NewGenerationError("no base URL configured for provider " + c.name)
	}

	chatReq := translateRequest(req)

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewGenerationError("failed to marshal request: " + err.Error())
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewGenerationError("failed to create HTTP request: " + err.Error())
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	// Use a client without timeout for streaming. The context controls
	// the request lifetime instead.
	streamClient := &http.Client{
		Transport: c.client.Transport,
	}

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}

	// Check for error status codes before starting the stream.
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, MapHTTPError(httpResp)
	}

	ch := make(chan provider.Event, 16)

	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSEStream(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// translateRequest converts a backend-neutral generation request into
// the Chat Completions wire format.
func translateRequest(req *provider.GenerationRequest) *ChatCompletionRequest {
	messages := make([]ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := &ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   true,
	}

	if req.Schema != nil {
		chatReq.ResponseFormat = &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   req.Schema.Name,
				Schema: req.Schema.Schema,
				Strict: req.Schema.Strict,
			},
		}
	}

	return chatReq
}
