package api

import "time"

// Template describes a single execution profile the generator can
// target: the packages it ships with, the file the generated code must
// land in, and the port the resulting app listens on. The catalog of
// templates is loaded once at process start and never mutated.
type Template struct {
	// ID is the catalog key. Catalogs may carry an environment suffix
	// ("-dev") which is stripped before the id is used downstream.
	ID string `yaml:"id" json:"id"`

	// DisplayName is the human-readable template name.
	DisplayName string `yaml:"name" json:"name"`

	// Dependencies lists the package specs pre-installed in the
	// template, in install order.
	Dependencies []string `yaml:"dependencies" json:"dependencies"`

	// EntryFilePath is the file the generated code must be written to.
	// Empty means the template has no entry file.
	EntryFilePath string `yaml:"entry_file_path" json:"entry_file_path"`

	// Port is the port the template's app listens on. 0 means none.
	Port int `yaml:"port" json:"port"`

	// Instructions is free text describing how to use the template,
	// embedded verbatim into the generation system prompt.
	Instructions string `yaml:"instructions" json:"instructions"`
}

// Fragment is the structured result of one generation call: the code
// plus the metadata needed to run it. It is produced once by the
// generation orchestrator and consumed once by the sandbox provisioner.
type Fragment struct {
	TemplateID string `json:"template_id"`
	Code       string `json:"code"`
	FilePath   string `json:"file_path"`

	// Port overrides the template port when set.
	Port *int `json:"port,omitempty"`

	// HasAdditionalDependencies must be true exactly when
	// AdditionalDependencies is non-empty.
	HasAdditionalDependencies bool     `json:"has_additional_dependencies"`
	AdditionalDependencies    []string `json:"additional_dependencies"`

	// InstallCommand is executed inside the sandbox when additional
	// dependencies are declared.
	InstallCommand string `json:"install_command"`
}

// ExecutionResult is produced once per provisioned sandbox and never
// mutated afterwards. For web templates only the URL triple is set;
// interpreter templates additionally carry captured output.
type ExecutionResult struct {
	SandboxID  string `json:"sbxId"`
	TemplateID string `json:"template"`
	URL        string `json:"url"`

	Stdout       string       `json:"stdout,omitempty"`
	Stderr       string       `json:"stderr,omitempty"`
	RuntimeError *string      `json:"runtime_error,omitempty"`
	CellResults  []CellResult `json:"cell_results,omitempty"`
}

// CellResult is one evaluated cell of an interpreter-style template.
type CellResult struct {
	Text string `json:"text,omitempty"`
	PNG  string `json:"png,omitempty"`
}

// Artifact is a persisted generated creation with ownership and
// visibility metadata. Exactly one of UserID and FingerprintID is set,
// matching the creator's identity kind. The core reads ownership fields
// and increments the view count; lifecycle is owned elsewhere.
type Artifact struct {
	ID            string    `json:"id"`
	UserID        *string   `json:"user_id,omitempty"`
	FingerprintID *string   `json:"fingerprint_id,omitempty"`
	IsPublic      bool      `json:"is_public"`
	ViewCount     int       `json:"view_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidationResult is the outcome of a markup validation pass. It is
// ephemeral and never persisted.
type ValidationResult struct {
	IsValid     bool   `json:"is_valid"`
	FixedMarkup string `json:"fixed_markup,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Message is one role-tagged entry of the conversation history sent to
// the generation orchestrator.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelDescriptor identifies the inference model a request targets and
// the provider that serves it.
type ModelDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
}

// ClientOverrides carries per-request provider overrides. Absent fields
// fall back to the process-wide provider configuration.
type ClientOverrides struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// CreateFragmentRequest is the body of POST /v1/fragments.
type CreateFragmentRequest struct {
	Messages  []Message        `json:"messages"`
	Model     ModelDescriptor  `json:"model"`
	Overrides *ClientOverrides `json:"overrides,omitempty"`
}

// ProvisionRequest is the body of POST /v1/sandboxes.
type ProvisionRequest struct {
	Fragment Fragment `json:"fragment"`
}

// ViewCountResponse is the body returned by the view-increment endpoint.
type ViewCountResponse struct {
	ID        string `json:"id"`
	ViewCount int    `json:"view_count"`
}
