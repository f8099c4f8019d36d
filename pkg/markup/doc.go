// Package markup recovers and validates generated markup. It is the
// fallback path used when structured parsing of the generation output
// is bypassed: the extractor pulls the last fenced code block for a
// target language out of raw model text, and the validator checks that
// the result is a minimally well-formed document.
package markup
