package auth

import (
	"log/slog"
	"net/http"

	"github.com/skizzehq/skizze/pkg/access"
)

// Middleware creates HTTP middleware from a Chain. A valid credential
// puts the resolved actor into the request context; an invalid one
// rejects the request; no credential at all lets the request proceed
// actor-less, leaving access decisions to the handlers.
func Middleware(chain *Chain, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			switch result.Decision {
			case No:
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"type":"invalid_request","message":"invalid credentials"}}`))
				return

			case Yes:
				if result.Actor.ID == "" {
					slog.Error("authenticator returned actor with empty id")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":{"type":"server_error","message":"internal authentication error"}}`))
					return
				}
				slog.Debug("actor resolved",
					"kind", result.Actor.Kind.String(),
					"path", r.URL.Path,
				)
				r = r.WithContext(access.WithActor(r.Context(), result.Actor))

			case Abstain:
				// No credential of any kind: proceed without an actor.
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultBypassEndpoints lists endpoints that skip identity
// resolution.
var DefaultBypassEndpoints = []string{"/healthz", "/metrics"}
