package markup

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/skizzehq/skizze/pkg/api"
)

// Validate parses the given markup and verifies minimal document
// structure: a root html element, a head section, and a body section,
// checked in that order with the first missing element winning. On
// success the parser-normalized tree is serialized back and returned as
// the fixed markup. Normalization is limited to whitespace and
// attribute canonicalization; elements are never reordered.
func Validate(markup string) api.ValidationResult {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return api.ValidationResult{Error: fmt.Sprintf("parse error: %v", err)}
	}

	// The parser synthesizes html/head/body nodes for fragments, so the
	// structural checks run against the source tokens, not the tree.
	for _, elem := range []string{"html", "head", "body"} {
		if !hasSourceElement(markup, elem) {
			return api.ValidationResult{Error: fmt.Sprintf("document is missing a %s element", elem)}
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return api.ValidationResult{Error: fmt.Sprintf("serialize error: %v", err)}
	}

	return api.ValidationResult{IsValid: true, FixedMarkup: buf.String()}
}

// hasSourceElement reports whether the raw markup contains a start tag
// (or self-closing tag) with the given name.
func hasSourceElement(markup, name string) bool {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF: scan complete without a match.
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			tagName, _ := z.TagName()
			if string(tagName) == name {
				return true
			}
		}
	}
}
