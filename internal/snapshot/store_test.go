package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"wardenhq/warden/pkg/audit"
)

type memReader map[string]string

func (m memReader) ReadFile(relPath string) ([]byte, error) {
	content, ok := m[relPath]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", relPath)
	}
	return []byte(content), nil
}

func (m memReader) files() []audit.SourceFile {
	out := make([]audit.SourceFile, 0, len(m))
	for path := range m {
		out = append(out, audit.SourceFile{Path: path})
	}
	return out
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshot.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_TakeAndDensity(t *testing.T) {
	store := openTestStore(t)
	reader := memReader{
		"a.go": "package a\n\nfunc A() {}\n",
		"b.go": "package b\n",
	}

	n, err := store.Take(context.Background(), "/repo", reader.files(), reader, nil)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Take() recorded %d files, want 2", n)
	}

	tests := []struct {
		path        string
		wantDensity int
		wantOK      bool
	}{
		{path: "a.go", wantDensity: audit.Density([]byte(reader["a.go"])), wantOK: true},
		{path: "b.go", wantDensity: audit.Density([]byte(reader["b.go"])), wantOK: true},
		{path: "absent.go", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			density, ok, err := store.Density(tt.path)
			if err != nil {
				t.Fatalf("Density() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Density() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && density != tt.wantDensity {
				t.Errorf("Density() = %d, want %d", density, tt.wantDensity)
			}
		})
	}
}

func TestStore_TakeReplacesPrevious(t *testing.T) {
	store := openTestStore(t)

	first := memReader{"old.go": "package old\n"}
	if _, err := store.Take(context.Background(), "/repo", first.files(), first, nil); err != nil {
		t.Fatalf("Take() error = %v", err)
	}

	second := memReader{"new.go": "package new\n"}
	if _, err := store.Take(context.Background(), "/repo", second.files(), second, nil); err != nil {
		t.Fatalf("Take() second error = %v", err)
	}

	if _, ok, _ := store.Density("old.go"); ok {
		t.Error("Density(old.go) ok = true, want false after replacement")
	}
	if _, ok, _ := store.Density("new.go"); !ok {
		t.Error("Density(new.go) ok = false, want true")
	}
}

func TestStore_TakeSkipsUnreadable(t *testing.T) {
	store := openTestStore(t)
	reader := memReader{"ok.go": "package ok\n"}
	files := append(reader.files(), audit.SourceFile{Path: "ghost.go"})

	n, err := store.Take(context.Background(), "/repo", files, reader, nil)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Take() recorded %d files, want 1", n)
	}
	if _, ok, _ := store.Density("ghost.go"); ok {
		t.Error("Density(ghost.go) ok = true, want false")
	}
}

func TestStore_Info(t *testing.T) {
	store := openTestStore(t)

	if _, ok, err := store.Info(context.Background()); err != nil || ok {
		t.Fatalf("Info() before Take = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	reader := memReader{"a.go": "package a\n"}
	if _, err := store.Take(context.Background(), "/repo", reader.files(), reader, nil); err != nil {
		t.Fatalf("Take() error = %v", err)
	}

	info, ok, err := store.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if !ok {
		t.Fatal("Info() ok = false, want true")
	}
	if info.Root != "/repo" {
		t.Errorf("Info().Root = %q, want %q", info.Root, "/repo")
	}
	if info.FileCount != 1 {
		t.Errorf("Info().FileCount = %d, want 1", info.FileCount)
	}
	if info.TakenAt.IsZero() {
		t.Error("Info().TakenAt is zero, want timestamp")
	}
}

func TestStore_TakeReportsProgress(t *testing.T) {
	store := openTestStore(t)
	reader := memReader{
		"a.go": "package a\n",
		"b.go": "package b\n",
		"c.go": "package c\n",
	}

	var calls int64
	var lastTotal int64
	_, err := store.Take(context.Background(), "/repo", reader.files(), reader, func(done, total int64) {
		calls++
		lastTotal = total
	})
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("progress called %d times, want 3", calls)
	}
	if lastTotal != 3 {
		t.Errorf("progress total = %d, want 3", lastTotal)
	}
}

func TestStore_TakeCancelled(t *testing.T) {
	store := openTestStore(t)
	reader := memReader{"a.go": "package a\n"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Take(ctx, "/repo", reader.files(), reader, nil); err == nil {
		t.Fatal("Take() error = nil, want cancellation")
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Fatal("Open() error = nil, want empty path failure")
	}
}

func TestStore_CloseIdempotent(t *testing.T) {
	store := openTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() second call error = %v", err)
	}
}
