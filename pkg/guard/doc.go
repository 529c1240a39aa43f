/*
Package guard restricts governed mutating operations to a single
sanctioned orchestration path.

Autonomous maintenance tasks may only mutate a repository through the
orchestrator. Every mutating primitive (file writes, task execution,
history rewrites) calls Verify at its entry point; the call fails with a
BypassError unless the calling context carries an active authorization
grant. Only the orchestrator issues grants, so direct invocation of a
governed primitive from anywhere else is a hard stop, not a warning.

# Basic Usage

The orchestrator authorizes a call chain for the duration of one task:

	ctx, grant, err := guard.Authorize(ctx, "task.apply_fix")
	if err != nil {
		return err
	}
	defer grant.Release()

	// Everything invoked with ctx below is authorized.
	return applyFix(ctx, task)

Each governed primitive verifies before doing anything else:

	func writeFile(ctx context.Context, path string, data []byte) error {
		if err := guard.Verify(ctx, "mutate.write"); err != nil {
			return err
		}
		// ...
	}

# Grant Lifecycle

Authorize returns a derived context carrying the grant and the grant
itself. Release revokes the grant; it is idempotent and safe to defer.
After release, any context still carrying the grant fails Verify, so a
stashed context cannot outlive its authorization window.

Grants are scoped to the context chain they were issued on. Concurrent
call chains never observe each other's grants: a sibling goroutine
holding an unrelated context fails Verify even while another chain is
authorized.

# Root Authority

The orchestrator's own top-level action, RootActionID, is exempt from
verification. The orchestrator issues grants, so it cannot be required
to already hold one when it starts. The exemption is a single named
constant, not a configurable list.

# Instances

NewGuard creates an independent guard with its own grant ledger; grants
issued by one instance are not honored by another. The package-level
Authorize and Verify functions share one process-wide default instance,
which is what governed primitives should use unless a test injects its
own.
*/
package guard
