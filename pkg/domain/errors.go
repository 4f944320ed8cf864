// Package domain holds shared repository contracts and the error taxonomy
// used across the mission editor.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errors shared by all components. Services and adapters wrap these with
// context so callers can branch on errors.Is while still seeing the cause.
var (
	// ErrNotFound indicates a missing project, mission type, or remote reference.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate name on create.
	ErrConflict = errors.New("already exists")

	// ErrInUse indicates a deletion blocked by an existing reference.
	ErrInUse = errors.New("still referenced")

	// ErrAuth indicates missing or rejected credentials for an external service.
	ErrAuth = errors.New("authentication failed")

	// ErrService indicates a network or API failure from an external service.
	ErrService = errors.New("external service failure")

	// ErrFormat indicates an unreadable persisted or remote payload.
	ErrFormat = errors.New("malformed payload")

	// ErrValidation indicates a domain invariant violation.
	ErrValidation = errors.New("validation failed")
)

// ValidationError aggregates every invariant violation found in a document
// so the editor can report them all at once instead of one per save attempt.
type ValidationError struct {
	Subject string
	Issues  []string
}

func NewValidationError(subject string, issues []error) *ValidationError {
	ve := &ValidationError{Subject: subject}
	for _, issue := range issues {
		ve.Issues = append(ve.Issues, issue.Error())
	}
	return ve
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: validation failed", e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Subject, strings.Join(e.Issues, "; "))
}

// Is allows errors.Is(err, ErrValidation) to match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FormatError reports a payload that could not be mapped onto the expected
// schema, carrying the offending location when known.
type FormatError struct {
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unreadable payload from %s: %s", e.Source, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
