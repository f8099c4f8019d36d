// Package storage defines the narrow artifact store interface the core
// reads ownership fields through, plus the sentinel errors shared by
// all implementations. Artifact lifecycle (creation, publication,
// deletion) is owned by an external collaborator; the store surface
// here is limited to lookup, the view-count increment, and public
// listing.
package storage
