/*
Package cli provides command-line utilities shared by the warden command.

The cli package includes run rendering, exit code mapping, progress
reporting, and signal handling used by the warden subcommands.

Run Output:

Audit runs render as text for humans or JSON for tooling:

	if err := cli.WriteRun(os.Stdout, run, cli.FormatText); err != nil {
		return err
	}

Exit Codes:

The audit command distinguishes "the code failed the audit" from "the
tool broke":

	os.Exit(cli.VerdictExitCode(run.Verdict))  // 0 pass/degraded, 1 fail

	// main wraps command errors:
	os.Exit(cli.ExitCode(err))  // 0 ok, 2 tool error

Progress Reporting:

Snapshotting a large tree reports per-file progress:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(totalFiles)
	// ... Update(i) per file ...
	progress.Finish()

Signal Handling:

For graceful cancellation on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	run, err := auditor.RunFullAudit(ctx, actx)
*/
package cli
