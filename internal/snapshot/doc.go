// Package snapshot persists per-file content densities so the
// logic-conservation check has a pre-edit baseline outside git
// worktrees.
//
// A snapshot is one pass over the audited tree recording, for every
// admitted file, the number of non-whitespace characters it contained
// at that moment. Later runs compare the current density of a modified
// file against the stored one; a suspicious shrink produces a blocking
// finding. Trees inside a git repository usually baseline against HEAD
// instead, and only fall back to the snapshot store when no commit
// history is available.
//
// The store is a single SQLite database file. Taking a new snapshot
// replaces the previous one atomically; a run never observes a
// half-written baseline.
package snapshot
