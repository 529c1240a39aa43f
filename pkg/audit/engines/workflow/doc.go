// Package workflow runs declared commands as audit gates. Unlike the
// fixed-rule engines, it has no built-in checks: every policy rule whose
// ID starts with "workflow." materializes one check that executes the
// configured command inside the audited tree and converts a non-zero
// exit into a single finding.
//
// # Rule Parameters
//
//	command          argv to execute (required, first element is the binary)
//	timeout_seconds  wall-clock budget for the command (default 60)
//	dir              repo-relative working directory (default repo root)
//
// A rule such as
//
//	- id: workflow.vet
//	  severity: ERROR
//	  params:
//	    command: ["go", "vet", "./..."]
//	    timeout_seconds: 120
//
// produces the check "vet" under this engine.
//
// # Outcome Mapping
//
// Exit status zero yields no findings. A non-zero exit yields exactly one
// finding whose message is the first non-empty line of the command's
// combined output, which for most linters and compilers is the headline
// diagnostic. A command that exceeds its budget yields one finding noting
// the timeout. A command that cannot be started at all (missing binary,
// bad working directory) is an execution error, not a finding: the
// environment is broken, so the bound rule must count as crashed rather
// than clean.
package workflow
