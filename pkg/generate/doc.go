// Package generate drives streaming, schema-constrained fragment
// generation. One provider call per request, no retries: a failed call
// surfaces as a terminal failure event, and the whole call is bounded
// by a hard wall-clock ceiling.
package generate
