// Package template holds the static catalog of execution templates and
// renders the generation system prompt from it. The catalog is loaded
// once at startup from a YAML file and is read-only afterwards, so it
// is safe for unsynchronized concurrent reads.
package template
