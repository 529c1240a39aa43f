package audit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	// ErrNilContext is returned when an audit is started without a context
	ErrNilContext = errors.New("audit context is nil")

	// ErrEngineExists is returned when an engine ID is registered twice
	ErrEngineExists = errors.New("engine already registered")
)

// UnsupportedEngineError is returned by Registry.Get for an engine ID
// outside the registered set. Engine IDs come from check resolution, so
// this always indicates a programming or registration error, never bad
// policy input.
type UnsupportedEngineError struct {
	// EngineID is the unknown identifier
	EngineID string

	// Known lists the registered identifiers for the error message
	Known []string
}

// Error implements the error interface.
func (e *UnsupportedEngineError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unsupported engine %q: no engines registered", e.EngineID)
	}
	return fmt.Sprintf("unsupported engine %q: registered engines are %s",
		e.EngineID, strings.Join(e.Known, ", "))
}

// EngineConstructionError is returned by Registry.Get when a registered
// constructor fails. The failure is not cached; a later Get retries.
type EngineConstructionError struct {
	// EngineID is the engine that failed to construct
	EngineID string

	// Cause is the constructor error
	Cause error
}

// Error implements the error interface.
func (e *EngineConstructionError) Error() string {
	return fmt.Sprintf("failed to construct engine %q: %v", e.EngineID, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *EngineConstructionError) Unwrap() error {
	return e.Cause
}

// CheckExecutionError records a check that returned an error or panicked.
// It never propagates out of a run; the Auditor converts it into crashed
// rule accounting so one broken check cannot mask the others.
type CheckExecutionError struct {
	// EngineID is the engine the check belongs to
	EngineID string

	// CheckID is the check that failed
	CheckID string

	// RuleIDs are the rules marked crashed by this failure
	RuleIDs []string

	// Panic holds the recovered panic value, if the check panicked
	Panic interface{}

	// Cause is the returned error, if the check failed without panicking
	Cause error
}

// Error implements the error interface.
func (e *CheckExecutionError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("check %q (engine %q) panicked: %v", e.CheckID, e.EngineID, e.Panic)
	}
	return fmt.Sprintf("check %q (engine %q) failed: %v", e.CheckID, e.EngineID, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *CheckExecutionError) Unwrap() error {
	return e.Cause
}

// DuplicateClaimError reports two checks claiming the same rule ID. The
// rule-to-check mapping must be unambiguous, so this fails registry
// initialization instead of letting dispatch order decide the winner.
type DuplicateClaimError struct {
	// RuleID is the rule claimed twice
	RuleID string

	// FirstCheck is the check that claimed the rule first
	FirstCheck string

	// SecondCheck is the check that claimed it again
	SecondCheck string
}

// Error implements the error interface.
func (e *DuplicateClaimError) Error() string {
	return fmt.Sprintf("rule %q is claimed by both check %q and check %q",
		e.RuleID, e.FirstCheck, e.SecondCheck)
}
