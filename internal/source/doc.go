// Package source enumerates the audited tree and supplies its git
// collaborators: the modified-file list and the pre-image density
// baseline.
//
// # Overview
//
// An audit run needs three inputs this package produces:
//
//   - the file list, from Walker (include/exclude globs, hidden entries
//     skipped)
//   - the modified-file list, from Repo.ModifiedFiles (worktree status
//     against HEAD)
//   - a pre-image density source, from ResolveBaseline
//
// # Baseline Resolution
//
// ResolveBaseline maps the configured baseline mode to a concrete
// source. "git" reads committed pre-images from the HEAD tree,
// "snapshot" uses a stored density snapshot, "none" disables the
// baseline, and "auto" prefers git and degrades through snapshot to
// none. Outside a git repository the git pieces degrade rather than
// fail: OpenRepo returns ErrNoRepository and auto mode moves on.
package source
