// =============================================================================
// Subscription CSV Customiser - Validation
// =============================================================================
//
// This module holds the two kinds of checks the customiser performs:
//   1. Input checks at the boundary (file type, size, existence). These
//      fail the request before the transformer ever runs.
//   2. Non-fatal warnings raised by the transformer (for example a column
//      that could not be discovered). These never stop processing.
//
// There is no schema validation of the data itself: column
// discovery is best-effort and every rule degrades to an empty value.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// WARNINGS
// =============================================================================

// Severity levels for a Warning.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Warning is a non-fatal finding reported alongside a converted dataset.
type Warning struct {
	// Severity is SeverityWarning for user-visible findings and
	// SeverityInfo for diagnostics.
	Severity string `json:"severity"`

	// Field is the column role the warning is about, if any.
	Field string `json:"field,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(w.Severity), w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(w.Severity), w.Field, w.Message)
}

// UserVisible returns only the warnings that should be shown to the caller.
func UserVisible(warnings []Warning) []Warning {
	var out []Warning
	for _, w := range warnings {
		if w.Severity == SeverityWarning {
			out = append(out, w)
		}
	}
	return out
}

// FormatWarnings formats warnings for display.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return "No warnings."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Conversion completed with %d warning(s):\n", len(warnings)))
	for i, w := range warnings {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, w.String()))
	}
	return builder.String()
}

// =============================================================================
// INPUT CHECKS
// =============================================================================

// ErrUnsupportedUpload is returned for files the ingest adapters cannot read.
var ErrUnsupportedUpload = errors.New("unsupported file type")

// ErrUploadTooLarge is returned when an upload exceeds the configured limit.
var ErrUploadTooLarge = errors.New("file too large")

// SupportedExtensions are the file extensions accepted for conversion.
var SupportedExtensions = []string{".csv", ".xlsx"}

// ValidateFileName checks that name has a supported extension.
func ValidateFileName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedUpload, filepath.Base(name), strings.Join(SupportedExtensions, ", "))
}

// ValidateUpload checks an uploaded file's name and size.
func ValidateUpload(name string, size, maxBytes int64) error {
	if err := ValidateFileName(name); err != nil {
		return err
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrUploadTooLarge, size, maxBytes)
	}
	return nil
}

// ValidateInputFile checks that path is an existing regular file with a
// supported extension.
func ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return ValidateFileName(path)
}
