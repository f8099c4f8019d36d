// Package access decides artifact ownership and access across the two
// identity spaces: authenticated account holders and anonymous visitors
// identified by a durable browser fingerprint. The decision is a pure
// function over the actor and the artifact's ownership fields; the
// public-read exception is enforced by callers.
package access
