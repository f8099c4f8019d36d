package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skizzehq/skizze/pkg/api"
)

const testCatalog = `
templates:
  - id: nextjs-dev
    name: Next.js
    dependencies:
      - next
      - react
    entry_file_path: app/page.tsx
    port: 3000
    instructions: Use the app router. Styling with Tailwind classes.
  - id: static
    name: Static HTML
    entry_file_path: index.html
    port: 80
    instructions: Plain HTML page, no build step.
`

func TestParseCatalog(t *testing.T) {
	r, err := Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}

	// The -dev suffix is stripped at load time.
	tmpl, ok := r.Get("nextjs")
	if !ok {
		t.Fatal("nextjs template not found")
	}
	if tmpl.ID != "nextjs" {
		t.Errorf("ID = %q, want %q", tmpl.ID, "nextjs")
	}
	if tmpl.EntryFilePath != "app/page.tsx" {
		t.Errorf("EntryFilePath = %q", tmpl.EntryFilePath)
	}
	if tmpl.Port != 3000 {
		t.Errorf("Port = %d, want 3000", tmpl.Port)
	}

	// Suffixed lookups resolve to the same template.
	if _, ok := r.Get("nextjs-dev"); !ok {
		t.Error("suffixed lookup failed")
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty catalog", "templates: []"},
		{"empty id", "templates:\n  - id: \"\"\n    instructions: x"},
		{"duplicate after normalization", "templates:\n  - id: nextjs\n  - id: nextjs-dev"},
		{"malformed yaml", "templates: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAllPreservesCatalogOrder(t *testing.T) {
	r, err := New(
		api.Template{ID: "b"},
		api.Template{ID: "a"},
		api.Template{ID: "c"},
	)
	if err != nil {
		t.Fatal(err)
	}
	got := r.All()
	want := []string{"b", "a", "c"}
	for i, tmpl := range got {
		if tmpl.ID != want[i] {
			t.Errorf("All()[%d].ID = %q, want %q", i, tmpl.ID, want[i])
		}
	}
}
