package sandbox

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// StaticCreator hands out environments backed by a single fixed
// sandbox server. Intended for local development where one long-lived
// sandbox stands in for a fleet; the lifetime is accepted but enforced
// by nothing.
type StaticCreator struct {
	controlURL string
	host       string
}

var _ EnvironmentCreator = (*StaticCreator)(nil)

// NewStaticCreator creates a StaticCreator for the sandbox server at
// rawURL.
func NewStaticCreator(rawURL string) (*StaticCreator, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse sandbox URL %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("sandbox URL %q has no host", rawURL)
	}
	return &StaticCreator{
		controlURL: rawURL,
		host:       u.Hostname(),
	}, nil
}

// Create returns an environment pointing at the fixed sandbox server.
func (s *StaticCreator) Create(ctx context.Context, templateID string, lifetime time.Duration) (*Environment, error) {
	return &Environment{
		ID:         fmt.Sprintf("sbx-%s-%d", templateID, time.Now().UnixNano()),
		Host:       s.host,
		ControlURL: s.controlURL,
	}, nil
}
