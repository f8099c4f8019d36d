package auth

import (
	"context"
	"net/http"

	"github.com/skizzehq/skizze/pkg/access"
)

// Decision represents the three possible outcomes of an authentication
// attempt.
type Decision int

const (
	// Yes means a credential is present and valid. The chain stops and
	// the actor is used.
	Yes Decision = iota

	// No means a credential is present but invalid. The chain stops
	// and the request is rejected.
	No

	// Abstain means this authenticator found no credential it handles.
	// The chain continues to the next authenticator.
	Abstain
)

// Result carries the outcome of an authentication attempt.
type Result struct {
	Decision Decision
	Actor    access.Actor // populated only when Decision == Yes
	Err      error        // populated only when Decision == No
}

// Authenticator examines request credentials and returns a
// three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

// Chain evaluates authenticators in order. Order matters: placing the
// bearer-token authenticator before the fingerprint one is what makes
// an authenticated identity win over a fingerprint sent on the same
// request.
type Chain struct {
	Authenticators []Authenticator
}

// Authenticate runs the chain, stopping on the first Yes or No. When
// every authenticator abstains the result is Abstain: the request
// proceeds without an actor rather than being rejected.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}
	return Result{Decision: Abstain}
}
