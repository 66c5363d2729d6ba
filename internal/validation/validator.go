// =============================================================================
// Payment Statement Merger - Validation
// =============================================================================
//
// This module checks the user-supplied inputs of a merge before any file is
// touched. Checks run in a fixed order and the first failure is reported on
// its own:
//
//   1. at least one input file
//   2. an output file name
//   3. an issue month (1-12)
//   4. an output directory
//
// ERROR HANDLING:
//   - Every failure is a *ValidationError naming the offending field.
//   - Each ValidationError wraps one of the sentinel errors below, so callers
//     can branch with errors.Is.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNoFiles is returned when no input file was selected.
	ErrNoFiles = errors.New("no input files selected")

	// ErrNoOutputName is returned when the output file name is empty.
	ErrNoOutputName = errors.New("output file name is required")

	// ErrNoIssueMonth is returned when the issue month is empty.
	ErrNoIssueMonth = errors.New("issue month is required")

	// ErrInvalidMonth is returned when the issue month is not 1-12.
	ErrInvalidMonth = errors.New("issue month must be a number from 1 to 12")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("output directory is required")
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single precondition failure.
type ValidationError struct {
	// Field is the name of the input that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Err is the sentinel describing the failure.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v (value: '%s')", e.Field, e.Err, e.Value)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// REQUEST VALIDATION
// =============================================================================

// Request is the part of a merge request that is checked before processing.
type Request struct {
	Files      []string
	OutputName string
	IssueMonth string
	OutputDir  string
}

// ValidateRequest runs the precondition checks in order.
//
// RETURNS:
//   - The parsed issue month.
//   - The first *ValidationError found, or nil.
func ValidateRequest(req Request) (int, error) {
	if len(req.Files) == 0 {
		return 0, &ValidationError{Field: "files", Err: ErrNoFiles}
	}
	for _, f := range req.Files {
		if strings.TrimSpace(f) == "" {
			return 0, &ValidationError{Field: "files", Value: f, Err: ErrNoFiles}
		}
	}

	if strings.TrimSpace(req.OutputName) == "" {
		return 0, &ValidationError{Field: "output-name", Err: ErrNoOutputName}
	}

	month, err := ValidateMonth(req.IssueMonth)
	if err != nil {
		return 0, err
	}

	if strings.TrimSpace(req.OutputDir) == "" {
		return 0, &ValidationError{Field: "output-dir", Err: ErrNoOutputDir}
	}

	return month, nil
}

// ValidateMonth parses an issue month typed by the user.
// Only ASCII digits are accepted and the value must be within 1-12.
//
// EXAMPLE:
//
//	ValidateMonth("9")   -> 9, nil
//	ValidateMonth("09")  -> 9, nil
//	ValidateMonth("13")  -> 0, ErrInvalidMonth
//	ValidateMonth("")    -> 0, ErrNoIssueMonth
func ValidateMonth(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &ValidationError{Field: "month", Err: ErrNoIssueMonth}
	}

	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, &ValidationError{Field: "month", Value: text, Err: ErrInvalidMonth}
		}
	}

	month, err := strconv.Atoi(text)
	if err != nil || month < 1 || month > 12 {
		return 0, &ValidationError{Field: "month", Value: text, Err: ErrInvalidMonth}
	}

	return month, nil
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats errors for display, one numbered line each.
func FormatErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation failed with %d error(s):\n", len(errs)))

	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
