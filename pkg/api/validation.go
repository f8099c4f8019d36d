package api

import (
	"strconv"
	"strings"
)

// ValidateCreateFragmentRequest checks the request for structural
// problems before it reaches the orchestrator.
func ValidateCreateFragmentRequest(req *CreateFragmentRequest) *APIError {
	if len(req.Messages) == 0 {
		return NewInvalidRequestError("messages", "at least one message is required")
	}
	for i, m := range req.Messages {
		switch m.Role {
		case "system", "user", "assistant":
		default:
			return NewInvalidRequestError("messages", "unsupported role at index "+strconv.Itoa(i)+": "+m.Role)
		}
	}
	if req.Model.ID == "" {
		return NewInvalidRequestError("model.id", "model id is required")
	}
	if req.Model.Provider == "" {
		return NewInvalidRequestError("model.provider", "model provider is required")
	}
	return nil
}

// ValidateFragment checks a Fragment's internal invariants and its
// consistency with the template it references. tmpl may be nil when the
// template is resolved by the caller.
func ValidateFragment(frag *Fragment, tmpl *Template) *APIError {
	if frag.TemplateID == "" {
		return NewInvalidRequestError("fragment.template_id", "template id is required")
	}
	if frag.Code == "" {
		return NewInvalidRequestError("fragment.code", "code is required")
	}
	if frag.FilePath == "" {
		return NewInvalidRequestError("fragment.file_path", "file path is required")
	}

	if frag.HasAdditionalDependencies != (len(frag.AdditionalDependencies) > 0) {
		return NewInvalidRequestError("fragment.has_additional_dependencies",
			"dependency flag does not match the dependency list")
	}
	if frag.HasAdditionalDependencies && strings.TrimSpace(frag.InstallCommand) == "" {
		return NewInvalidRequestError("fragment.install_command",
			"install command is required when additional dependencies are declared")
	}

	if tmpl != nil && tmpl.EntryFilePath != "" && frag.FilePath != tmpl.EntryFilePath {
		return NewInvalidRequestError("fragment.file_path",
			"file path "+frag.FilePath+" does not match template entry path "+tmpl.EntryFilePath)
	}

	if frag.Port != nil && (*frag.Port < 1 || *frag.Port > 65535) {
		return NewInvalidRequestError("fragment.port", "port out of range")
	}

	return nil
}
