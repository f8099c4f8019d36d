package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Runner is the slice of the control API the provisioner needs.
type Runner interface {
	RunCommand(ctx context.Context, env *Environment, command string) (*CommandResult, error)
	WriteFile(ctx context.Context, env *Environment, path, content string) error
}

// Client calls an environment's control API over REST.
type Client struct {
	httpClient *http.Client
}

var _ Runner = (*Client)(nil)

// NewClient creates a control API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			// Overall HTTP timeout; step-level deadlines come from the
			// provisioning context.
			Timeout: 120 * time.Second,
		},
	}
}

// RunCommand executes a shell command inside the environment and
// returns its output. A non-zero exit code is returned as an error.
func (c *Client) RunCommand(ctx context.Context, env *Environment, command string) (*CommandResult, error) {
	body, err := json.Marshal(commandRequest{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, env.ControlURL+"/commands", body)
	if err != nil {
		return nil, err
	}

	var result CommandResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.ExitCode != 0 {
		return &result, fmt.Errorf("command exited with code %d: %s", result.ExitCode, result.Stderr)
	}
	return &result, nil
}

// WriteFile writes content to the given path inside the environment.
func (c *Client) WriteFile(ctx context.Context, env *Environment, path, content string) error {
	body, err := json.Marshal(writeFileRequest{Path: path, Content: content})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	_, err = c.post(ctx, env.ControlURL+"/files", body)
	return err
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sandbox request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("sandbox at capacity (HTTP 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sandbox returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
