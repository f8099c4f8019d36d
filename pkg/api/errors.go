package api

import "fmt"

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError       ErrorType = "server_error"
	ErrorTypeInvalidRequest    ErrorType = "invalid_request"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeGenerationError   ErrorType = "generation_error"
	ErrorTypeValidationError   ErrorType = "validation_error"
	ErrorTypeProvisioningError ErrorType = "provisioning_error"
	ErrorTypeForbidden         ErrorType = "forbidden"
)

// CodePrivateArtifact is the stable marker carried by forbidden errors
// raised for private artifacts. Presentation layers match on it to
// render a dedicated "private content" view instead of a generic error.
const CodePrivateArtifact = "private_artifact"

// APIError represents a structured API error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewGenerationError creates an APIError for provider or schema failures
// during structured generation. The message is passed through verbatim.
func NewGenerationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeGenerationError,
		Message: message,
	}
}

// NewValidationError creates an APIError for markup that fails
// structural checks. Param names the missing element when applicable.
func NewValidationError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidationError,
		Param:   param,
		Message: message,
	}
}

// NewProvisioningError creates an APIError for sandbox creation,
// dependency install, or file-write failures.
func NewProvisioningError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeProvisioningError,
		Message: message,
	}
}

// NewForbiddenError creates an APIError for access denied on a private
// artifact, tagged with the stable private-artifact marker.
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeForbidden,
		Code:    CodePrivateArtifact,
		Message: message,
	}
}

// IsPrivateArtifact reports whether err is a forbidden error carrying
// the private-artifact marker.
func IsPrivateArtifact(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Type == ErrorTypeForbidden && apiErr.Code == CodePrivateArtifact
}
