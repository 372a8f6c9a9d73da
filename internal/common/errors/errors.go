// Package errors provides standardized error handling for the quotation HTTP surface.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound     ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateRenderFailed ErrorCode = "TEMPLATE_RENDER_FAILED"

	ErrCodeInvalidOutputKind  ErrorCode = "INVALID_OUTPUT_KIND"
	ErrCodeInvalidRecord      ErrorCode = "INVALID_RECORD"
	ErrCodeInvalidRequestBody ErrorCode = "INVALID_REQUEST_BODY"

	ErrCodeNoConverterAvailable    ErrorCode = "NO_CONVERTER_AVAILABLE"
	ErrCodeConversionToolError     ErrorCode = "CONVERSION_TOOL_ERROR"
	ErrCodeConversionTimeout       ErrorCode = "CONVERSION_TIMEOUT"
	ErrCodeConversionOutputMissing ErrorCode = "CONVERSION_OUTPUT_MISSING"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the domain error the StandardError was built from.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error.
func (e *StandardError) WithCause(err error) *StandardError {
	e.cause = err
	return e
}

// WithMetadata adds a key to Metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTemplateNotFoundError reports a missing template file. It is a deployment problem.
func NewTemplateNotFoundError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Quotation template not found",
		Details:   fmt.Sprintf("templatePath: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateRenderFailedError reports a template that could not be parsed or executed.
func NewTemplateRenderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateRenderFailed,
		Message:   "Failed to render quotation template",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidOutputKindError creates a non-retryable validation error.
func NewInvalidOutputKindError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOutputKind,
		Message:   "Unsupported output format",
		Details:   fmt.Sprintf("format: %q (expected word or pdf)", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRecordError creates a non-retryable validation error.
func NewInvalidRecordError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRecord,
		Message:   "Quotation record failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestBodyError wraps a body decoding failure.
func NewInvalidRequestBodyError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequestBody,
		Message:   "Request body must be a JSON object",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNoConverterAvailableError is returned when no conversion tool answers its probe.
func NewNoConverterAvailableError(tried []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoConverterAvailable,
		Message:   "No PDF conversion tool is available",
		Details:   fmt.Sprintf("probed: %s", strings.Join(tried, ", ")),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConversionToolError wraps a non-zero exit of a conversion tool.
func NewConversionToolError(tool string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConversionToolError,
		Message:   "PDF conversion failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"tool": tool},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConversionTimeoutError creates a retryable timeout error.
func NewConversionTimeoutError(tool string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConversionTimeout,
		Message:   "PDF conversion timed out",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"tool": tool},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConversionOutputMissingError reports a tool that exited cleanly without usable output.
func NewConversionOutputMissingError(tool string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConversionOutputMissing,
		Message:   "PDF conversion produced no output",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"tool": tool},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError is the catch-all used by Normalize.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidOutputKind, ErrCodeInvalidRecord, ErrCodeInvalidRequestBody:
		return http.StatusBadRequest
	case ErrCodeNoConverterAvailable:
		return http.StatusServiceUnavailable
	case ErrCodeConversionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "CONVER"):
		return "CONVERSION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
