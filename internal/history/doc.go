// Package history archives finished audit runs so verdicts and findings
// stay reviewable after the process exits.
//
// The archive is a SQLite database holding one row per run plus one row
// per finding. The audit core itself never persists anything; commands
// archive the runs they trigger, and `warden history` reads the archive
// back. Retention is enforced by a Pruner, either on demand or on a
// cron schedule in watch mode.
package history
