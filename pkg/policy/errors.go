package policy

import (
	"fmt"
	"strings"
)

// LoadError represents an error that occurred while reading a policy file.
// This includes file system errors like "file not found" or "permission
// denied", and errors from file size or encoding validation.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load policy file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load policy file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a YAML parsing failure in a policy document.
type ParseError struct {
	// FilePath is the path to the file that failed to parse
	FilePath string

	// Message describes the parsing error
	Message string

	// Cause is the underlying decoder error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error in %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error in %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a semantic problem inside one policy
// document, such as a rule without an ID or an unparseable severity.
type ValidationError struct {
	// PolicyID is the ID of the policy that failed validation
	PolicyID string

	// RuleID is the ID of the offending rule, if applicable
	RuleID string

	// Message describes the validation error
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := []string{"validation error"}
	if e.PolicyID != "" {
		parts = append(parts, fmt.Sprintf("in policy %q", e.PolicyID))
	}
	if e.RuleID != "" {
		parts = append(parts, fmt.Sprintf("in rule %q", e.RuleID))
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, " ")
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// DuplicateRuleError represents a rule identifier collision across the
// active policy set. Rule IDs are globally unique; a collision aborts the
// load rather than letting one policy silently shadow another.
type DuplicateRuleError struct {
	// RuleID is the colliding rule identifier
	RuleID string

	// FirstPolicy is the policy that declared the rule first
	FirstPolicy string

	// SecondPolicy is the policy that re-declared it
	SecondPolicy string
}

// Error implements the error interface.
func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("duplicate rule id %q: declared by policy %q and policy %q",
		e.RuleID, e.FirstPolicy, e.SecondPolicy)
}

// StoreError represents a failure in a store operation, such as
// registering a nil or unnamed policy.
type StoreError struct {
	// PolicyID is the ID of the policy involved, if known
	PolicyID string

	// Operation is the store operation that failed
	Operation string

	// Message describes the error
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.PolicyID != "" {
		return fmt.Sprintf("policy store error for %q during %s: %s", e.PolicyID, e.Operation, e.Message)
	}
	return fmt.Sprintf("policy store error during %s: %s", e.Operation, e.Message)
}

// ErrorList collects multiple errors from a directory load where some
// files may succeed and others fail.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return sb.String()
}

// Add appends a non-nil error to the list.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether the list contains any errors.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil for an empty list, the single error for a list of
// one, or the list itself otherwise.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}
