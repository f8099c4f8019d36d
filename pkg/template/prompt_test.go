package template

import (
	"strings"
	"testing"

	"github.com/skizzehq/skizze/pkg/api"
)

func TestComposePrompt(t *testing.T) {
	r, err := New(
		api.Template{
			ID:            "nextjs",
			DisplayName:   "Next.js",
			Dependencies:  []string{"next", "react"},
			EntryFilePath: "app/page.tsx",
			Port:          3000,
			Instructions:  "Use the app router.",
		},
		api.Template{
			ID:           "repl",
			Instructions: "Python cells, no entry file.",
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	prompt := ComposePrompt(r)

	for _, want := range []string{
		"Template: nextjs",
		"Use the app router.",
		"Entry file: app/page.tsx",
		"Preinstalled dependencies: next, react",
		"Port: 3000",
		"Template: repl",
		"Entry file: none",
		"Port: none",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestComposePromptDeterministic(t *testing.T) {
	r, err := New(
		api.Template{ID: "a", Instructions: "first"},
		api.Template{ID: "b", Instructions: "second"},
	)
	if err != nil {
		t.Fatal(err)
	}

	first := ComposePrompt(r)
	for i := 0; i < 10; i++ {
		if got := ComposePrompt(r); got != first {
			t.Fatal("prompt is not deterministic")
		}
	}

	// Catalog order is preserved in the prompt.
	if strings.Index(first, "Template: a") > strings.Index(first, "Template: b") {
		t.Error("templates out of catalog order")
	}
}

func TestComposePromptNeverTruncatesInstructions(t *testing.T) {
	long := strings.Repeat("All work and no play makes Jack a dull boy. ", 500)
	r, err := New(api.Template{ID: "big", Instructions: long})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ComposePrompt(r), long) {
		t.Error("long instructions were truncated")
	}
}
