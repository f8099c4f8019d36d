package auth

import (
	"context"
	"net/http"

	"github.com/skizzehq/skizze/pkg/access"
)

const (
	// FingerprintHeader carries the browser fingerprint on API calls.
	FingerprintHeader = "X-Fingerprint"

	// FingerprintCookie is the fallback cookie set by the web client.
	FingerprintCookie = "fp"
)

// FingerprintAuthenticator identifies anonymous visitors by their
// durable browser fingerprint, read from a header or a cookie. The
// value is opaque: any non-empty string is accepted, so this
// authenticator never votes No.
type FingerprintAuthenticator struct{}

var _ Authenticator = (*FingerprintAuthenticator)(nil)

// Authenticate reads the fingerprint from the X-Fingerprint header,
// falling back to the fp cookie. Absent both, it abstains.
func (f *FingerprintAuthenticator) Authenticate(ctx context.Context, r *http.Request) Result {
	if fp := r.Header.Get(FingerprintHeader); fp != "" {
		return Result{Decision: Yes, Actor: access.Visitor(fp)}
	}

	if cookie, err := r.Cookie(FingerprintCookie); err == nil && cookie.Value != "" {
		return Result{Decision: Yes, Actor: access.Visitor(cookie.Value)}
	}

	return Result{Decision: Abstain}
}
