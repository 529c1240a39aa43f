package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initRepo creates a repository with one commit containing the given
// files and returns its work tree root.
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}

	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := worktree.Add(rel); err != nil {
			t.Fatalf("Add(%q) error = %v", rel, err)
		}
	}

	_, err = worktree.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "warden", Email: "warden@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return dir
}

func TestOpenRepo_NoRepository(t *testing.T) {
	_, err := OpenRepo(t.TempDir())
	if !errors.Is(err, ErrNoRepository) {
		t.Fatalf("OpenRepo() error = %v, want ErrNoRepository", err)
	}
}

func TestRepo_Head(t *testing.T) {
	dir := initRepo(t, map[string]string{"a.go": "package a\n"})

	repo, err := OpenRepo(dir)
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}
	sha, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if len(sha) != 40 {
		t.Errorf("Head() = %q, want 40-character SHA", sha)
	}
}

func TestRepo_ModifiedFiles(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"kept.go":    "package kept\n",
		"changed.go": "package changed\n",
	})

	if err := os.WriteFile(filepath.Join(dir, "changed.go"), []byte("package changed\n\nfunc X() {}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.go"), []byte("package brand\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	repo, err := OpenRepo(dir)
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}
	modified, err := repo.ModifiedFiles()
	if err != nil {
		t.Fatalf("ModifiedFiles() error = %v", err)
	}

	want := []string{"changed.go", "new.go"}
	if len(modified) != len(want) {
		t.Fatalf("ModifiedFiles() = %v, want %v", modified, want)
	}
	for i := range want {
		if modified[i] != want[i] {
			t.Errorf("ModifiedFiles()[%d] = %q, want %q", i, modified[i], want[i])
		}
	}
}

func TestRepo_ModifiedFiles_CleanTree(t *testing.T) {
	dir := initRepo(t, map[string]string{"a.go": "package a\n"})

	repo, err := OpenRepo(dir)
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}
	modified, err := repo.ModifiedFiles()
	if err != nil {
		t.Fatalf("ModifiedFiles() error = %v", err)
	}
	if len(modified) != 0 {
		t.Errorf("ModifiedFiles() = %v, want none for a clean tree", modified)
	}
}

func TestRepo_Baseline_Density(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"pkg/code.go": "func main() {}\n",
	})

	repo, err := OpenRepo(dir)
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}
	baseline, err := repo.Baseline()
	if err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}

	density, ok, err := baseline.Density("pkg/code.go")
	if err != nil {
		t.Fatalf("Density() error = %v", err)
	}
	if !ok {
		t.Fatal("Density() ok = false for committed file")
	}
	if density != 12 {
		t.Errorf("Density() = %d, want 12", density)
	}

	_, ok, err = baseline.Density("pkg/never-committed.go")
	if err != nil {
		t.Fatalf("Density() error = %v for missing path", err)
	}
	if ok {
		t.Error("Density() ok = true for path absent from HEAD")
	}
}

func TestRepo_Baseline_SubdirectoryRoot(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"sub/code.go": "package sub\n",
		"top.go":      "package top\n",
	})

	repo, err := OpenRepo(filepath.Join(dir, "sub"))
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}
	baseline, err := repo.Baseline()
	if err != nil {
		t.Fatalf("Baseline() error = %v", err)
	}

	// Paths are relative to the audited subtree, not the repository.
	_, ok, err := baseline.Density("code.go")
	if err != nil {
		t.Fatalf("Density() error = %v", err)
	}
	if !ok {
		t.Error("Density() ok = false for file committed under the subtree")
	}
}

func TestRepo_ModifiedFiles_SubdirectoryRoot(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"sub/code.go": "package sub\n",
		"top.go":      "package top\n",
	})

	if err := os.WriteFile(filepath.Join(dir, "top.go"), []byte("package top // edited\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "code.go"), []byte("package sub // edited\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	repo, err := OpenRepo(filepath.Join(dir, "sub"))
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}
	modified, err := repo.ModifiedFiles()
	if err != nil {
		t.Fatalf("ModifiedFiles() error = %v", err)
	}

	// The edit outside the audited subtree must not leak in.
	if len(modified) != 1 || modified[0] != "code.go" {
		t.Errorf("ModifiedFiles() = %v, want [code.go]", modified)
	}
}

func TestRepo_Baseline_NoCommits(t *testing.T) {
	dir := t.TempDir()
	if _, err := gogit.PlainInit(dir, false); err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}

	repo, err := OpenRepo(dir)
	if err != nil {
		t.Fatalf("OpenRepo() error = %v", err)
	}
	if _, err := repo.Baseline(); err == nil {
		t.Fatal("Baseline() error = nil, want failure for repository without commits")
	}
}
