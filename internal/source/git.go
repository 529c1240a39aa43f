package source

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"wardenhq/warden/pkg/audit"
)

// ErrNoRepository reports that the audited tree is not inside a git work
// tree. Callers treat it as a signal to fall back, not as a failure.
var ErrNoRepository = errors.New("no git repository found")

// Repo gives the audit pipeline a read-only view of the git repository
// containing the audited tree: which files changed since HEAD, and what
// the committed pre-images looked like.
type Repo struct {
	repo *gogit.Repository
	// root is the absolute path of the audited tree, which may sit below
	// the repository's work tree root.
	root string
}

// OpenRepo opens the repository containing root, searching parent
// directories the way git itself does. Returns ErrNoRepository when no
// enclosing repository exists.
func OpenRepo(root string) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root %q: %w", root, err)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Repo{repo: repo, root: abs}, nil
}

// Head returns the SHA of the current HEAD commit.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// ModifiedFiles returns the repo-relative paths under the audited tree
// that differ from HEAD. Staged, unstaged, and untracked entries all
// count as modified; paths outside the audited tree are dropped.
func (r *Repo) ModifiedFiles() ([]string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	wtRoot := worktree.Filesystem.Root()
	var modified []string
	for p, st := range status {
		if st.Worktree == gogit.Unmodified && st.Staging == gogit.Unmodified {
			continue
		}
		rel, ok := r.relToRoot(wtRoot, p)
		if !ok {
			continue
		}
		modified = append(modified, rel)
	}

	sort.Strings(modified)
	return modified, nil
}

// Baseline returns a density source backed by the HEAD commit's tree.
// It fails when the repository has no commits yet.
func (r *Repo) Baseline() (audit.BaselineSource, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD tree: %w", err)
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	prefix, err := filepath.Rel(worktree.Filesystem.Root(), r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to locate audited tree in worktree: %w", err)
	}
	if prefix == "." {
		prefix = ""
	}

	return &gitBaseline{tree: tree, prefix: filepath.ToSlash(prefix)}, nil
}

// relToRoot rewrites a worktree-relative status path to be relative to
// the audited tree. ok is false for paths outside it.
func (r *Repo) relToRoot(wtRoot, statusPath string) (string, bool) {
	abs := filepath.Join(wtRoot, filepath.FromSlash(statusPath))
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// gitBaseline reads pre-edit densities from a committed tree. It holds
// no worktree state, so concurrent Density calls are safe.
type gitBaseline struct {
	tree   *object.Tree
	prefix string
}

// Density implements audit.BaselineSource. Paths absent from the tree
// report ok=false: a file git has never seen has no pre-image.
func (b *gitBaseline) Density(relPath string) (int, bool, error) {
	treePath := relPath
	if b.prefix != "" {
		treePath = path.Join(b.prefix, relPath)
	}

	file, err := b.tree.File(treePath)
	if errors.Is(err, object.ErrFileNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s from HEAD: %w", treePath, err)
	}

	content, err := file.Contents()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s from HEAD: %w", treePath, err)
	}
	return audit.Density([]byte(content)), true, nil
}
