// Package auth resolves the caller's identity for each request. A
// chain of authenticators votes with three outcomes: a valid credential
// yields an actor, an invalid one rejects the request, and an absent
// one passes the vote on. Authenticated identity always wins over a
// fingerprint; a request where every authenticator abstains proceeds
// with no actor at all.
package auth
