package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ginjaninja78/csv-customiser/internal/converter"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates an APIError.
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// Error codes.
const (
	CodeMissingFile     = "MISSING_FILE"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeUnsupportedFile = "UNSUPPORTED_FILE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeParseFailed     = "PARSE_FAILED"
	CodeInternal        = "INTERNAL_ERROR"
)

// errorFor maps a pipeline error to its API representation.
func errorFor(err error) *APIError {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, validation.ErrUploadTooLarge), errors.As(err, &maxBytes):
		return NewAPIError(http.StatusRequestEntityTooLarge, CodeFileTooLarge, err.Error())
	case errors.Is(err, validation.ErrUnsupportedUpload):
		return NewAPIError(http.StatusUnsupportedMediaType, CodeUnsupportedFile, err.Error())
	case errors.Is(err, converter.ErrParse):
		return NewAPIError(http.StatusUnprocessableEntity, CodeParseFailed, err.Error())
	default:
		return NewAPIError(http.StatusInternalServerError, CodeInternal, "conversion failed")
	}
}
