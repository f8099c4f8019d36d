package template

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skizzehq/skizze/pkg/api"
)

// envSuffix separates development catalogs from production ones.
// Template ids may carry it in the catalog file; it is stripped before
// the id is used anywhere downstream.
const envSuffix = "-dev"

// Registry is the immutable template catalog, keyed by id.
type Registry struct {
	templates map[string]api.Template
	order     []string
}

// catalogFile is the YAML shape of a template catalog.
type catalogFile struct {
	Templates []api.Template `yaml:"templates"`
}

// Load reads a template catalog from a YAML file. Ids are normalized by
// stripping the environment suffix; a duplicate normalized id is a
// configuration error.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a Registry from raw YAML catalog data.
func Parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing template catalog: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, fmt.Errorf("template catalog is empty")
	}

	r := &Registry{templates: make(map[string]api.Template, len(file.Templates))}
	for _, tmpl := range file.Templates {
		id := normalizeID(tmpl.ID)
		if id == "" {
			return nil, fmt.Errorf("template with empty id in catalog")
		}
		if _, exists := r.templates[id]; exists {
			return nil, fmt.Errorf("duplicate template id %q in catalog", id)
		}
		tmpl.ID = id
		r.templates[id] = tmpl
		r.order = append(r.order, id)
	}
	return r, nil
}

// New builds a Registry directly from templates. Used by tests and by
// callers that assemble catalogs programmatically.
func New(templates ...api.Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]api.Template, len(templates))}
	for _, tmpl := range templates {
		id := normalizeID(tmpl.ID)
		if id == "" {
			return nil, fmt.Errorf("template with empty id")
		}
		if _, exists := r.templates[id]; exists {
			return nil, fmt.Errorf("duplicate template id %q", id)
		}
		tmpl.ID = id
		r.templates[id] = tmpl
		r.order = append(r.order, id)
	}
	return r, nil
}

// Get returns the template for the given id. The lookup normalizes the
// id the same way loading does, so "nextjs-dev" resolves to "nextjs".
func (r *Registry) Get(id string) (api.Template, bool) {
	tmpl, ok := r.templates[normalizeID(id)]
	return tmpl, ok
}

// All returns the templates in catalog order.
func (r *Registry) All() []api.Template {
	out := make([]api.Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

// Len returns the number of templates in the catalog.
func (r *Registry) Len() int {
	return len(r.templates)
}

// normalizeID strips the environment suffix from a template id.
func normalizeID(id string) string {
	return strings.TrimSuffix(strings.TrimSpace(id), envSuffix)
}
