package guard

import (
	"errors"
	"fmt"
)

// ErrEmptyActionID indicates an Authorize call without an action identifier.
var ErrEmptyActionID = errors.New("action id is empty")

// BypassError indicates an attempt to invoke a governed primitive outside
// any sanctioned authorization scope. It is a security boundary, not a
// recoverable condition: callers must abort the mutation.
type BypassError struct {
	// ActionID is the governed action that was attempted.
	ActionID string

	// GrantID is set when the context carried a grant that was already
	// released, which usually means a context escaped its scope.
	GrantID string
}

// Error implements the error interface.
func (e *BypassError) Error() string {
	if e.GrantID != "" {
		return fmt.Sprintf("governance bypass: action %q presented released grant %s", e.ActionID, e.GrantID)
	}
	return fmt.Sprintf("governance bypass: action %q invoked outside an authorized scope", e.ActionID)
}
