package access

import "context"

// ActorKind distinguishes the two identity spaces.
type ActorKind int

const (
	// ActorUser is an authenticated account holder.
	ActorUser ActorKind = iota

	// ActorVisitor is an anonymous visitor identified by fingerprint.
	ActorVisitor
)

// String returns the identity space name.
func (k ActorKind) String() string {
	if k == ActorUser {
		return "user"
	}
	return "visitor"
}

// Actor is exactly one resolved request identity: an authenticated user
// id or an anonymous fingerprint, never both. An authenticated request
// that also carries a fingerprint resolves as authenticated; the
// fingerprint is ignored for ownership.
type Actor struct {
	Kind ActorKind
	ID   string
}

// User returns an authenticated actor.
func User(id string) Actor {
	return Actor{Kind: ActorUser, ID: id}
}

// Visitor returns an anonymous actor.
func Visitor(fingerprint string) Actor {
	return Actor{Kind: ActorVisitor, ID: fingerprint}
}

// actorKey is a private type for the actor context key.
type actorKey struct{}

// WithActor stores the resolved actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext retrieves the resolved actor. The second return
// value is false when the request carried no identity at all.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
