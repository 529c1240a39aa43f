package source

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/config"
	"wardenhq/warden/pkg/policy"
)

// Walker enumerates the audited tree into the file list an audit run
// operates on. Include and exclude globs use the same segment syntax as
// rule scopes, so the file a rule can see is always a file the walker
// admitted.
type Walker struct {
	root    string
	include []string
	exclude []string
}

// NewWalker creates a walker for the configured source tree. The root is
// resolved to an absolute path immediately so later walks are unaffected
// by working-directory changes.
func NewWalker(cfg config.SourceConfig) (*Walker, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root %q: %w", cfg.Root, err)
	}
	for _, glob := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if err := policy.ValidateScope(glob); err != nil {
			return nil, fmt.Errorf("invalid source glob: %w", err)
		}
	}
	return &Walker{
		root:    root,
		include: cfg.Include,
		exclude: cfg.Exclude,
	}, nil
}

// Root returns the absolute path of the audited tree.
func (w *Walker) Root() string {
	return w.root
}

// Walk enumerates every admitted regular file under the root. Results
// are ordered by slash path so two walks over the same tree feed checks
// identical input.
func (w *Walker) Walk(ctx context.Context) ([]audit.SourceFile, error) {
	var files []audit.SourceFile

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == w.root {
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Hidden entries never reach checks, independent of the globs.
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if w.excludesDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !w.Admits(rel) {
			return nil
		}

		files = append(files, audit.SourceFile{Path: rel, AbsPath: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source tree: %w", err)
	}

	// WalkDir visits lexically by native path; the contract here is
	// ordering by slash path, which can differ once separators are
	// rewritten.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Admits reports whether Walk would enumerate the given repo-relative
// path: no hidden segment, matched by the include globs (empty means
// everything), and not excluded. The watch loop uses it so change events
// and walks agree on what is audited.
func (w *Walker) Admits(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	if len(w.include) > 0 {
		matched := false
		for _, glob := range w.include {
			if policy.MatchScope(glob, rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, glob := range w.exclude {
		if policy.MatchScope(glob, rel) {
			return false
		}
	}
	return true
}

// excludesDir reports whether a directory's whole subtree is excluded.
// A glob of the form "dir/**" prunes the walk at dir instead of testing
// every file underneath it.
func (w *Walker) excludesDir(rel string) bool {
	for _, glob := range w.exclude {
		sub, ok := strings.CutSuffix(glob, "/**")
		if ok && policy.MatchScope(sub, rel) {
			return true
		}
	}
	return false
}
