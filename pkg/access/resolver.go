package access

import "github.com/skizzehq/skizze/pkg/api"

// Decision is the outcome of an ownership check. CanAccess covers only
// owner access; the isPublic read exception grants reads but never
// ownership and is applied by the caller.
type Decision struct {
	IsOwner   bool
	CanAccess bool
}

// Resolve decides ownership of an artifact for the given actor. The
// check is pure: an authenticated actor is matched against the
// artifact's user id, an anonymous actor against its fingerprint id,
// and the other ownership field is never consulted.
func Resolve(actor Actor, artifact *api.Artifact) Decision {
	var owner bool
	switch actor.Kind {
	case ActorUser:
		owner = artifact.UserID != nil && *artifact.UserID == actor.ID
	case ActorVisitor:
		owner = artifact.FingerprintID != nil && *artifact.FingerprintID == actor.ID
	}
	return Decision{IsOwner: owner, CanAccess: owner}
}

// CanView reports whether the actor may read the artifact, applying the
// public-read exception on top of ownership. hasActor is false when the
// request carried no identity; such requests see only public artifacts.
func CanView(actor Actor, hasActor bool, artifact *api.Artifact) bool {
	if artifact.IsPublic {
		return true
	}
	if !hasActor {
		return false
	}
	return Resolve(actor, artifact).CanAccess
}

// ForbiddenError returns the marked forbidden error raised when a
// private artifact is denied on a path that must render something.
func ForbiddenError() *api.APIError {
	return api.NewForbiddenError("this artifact is private")
}
