package cli

import (
	"errors"
	"fmt"

	"wardenhq/warden/pkg/audit"
)

// Process exit codes. A failing audit is not a failing tool: exit 1
// means the run completed and its verdict is FAIL, while exit 2 means
// the command itself could not complete.
const (
	// ExitPass is returned for PASS and DEGRADED verdicts.
	ExitPass = 0

	// ExitFail is returned when the run verdict is FAIL.
	ExitFail = 1

	// ExitError is returned when the command could not complete.
	ExitError = 2
)

// CommandError wraps a failure from a subcommand together with the exit
// code the process should return.
type CommandError struct {
	Command string
	Code    int
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, code int, err error) *CommandError {
	return &CommandError{
		Command: command,
		Code:    code,
		Err:     err,
	}
}

// ExitCode maps an error returned by command execution to the process
// exit code. nil means success; a CommandError carries its own code;
// anything else is a tool error.
func ExitCode(err error) int {
	if err == nil {
		return ExitPass
	}
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ExitError
}

// VerdictExitCode maps an audit verdict to the process exit code.
// DEGRADED exits 0: no blocking finding exists, and callers that want
// to gate on coverage can inspect the run output instead.
func VerdictExitCode(v audit.Verdict) int {
	if v == audit.VerdictFail {
		return ExitFail
	}
	return ExitPass
}
