package source

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"wardenhq/warden/pkg/config"
)

func TestWatcher_RelevantEvents(t *testing.T) {
	root := t.TempDir()
	walker, err := NewWalker(config.SourceConfig{
		Root:    root,
		Exclude: []string{"vendor/**"},
	})
	if err != nil {
		t.Fatalf("NewWalker() error = %v", err)
	}

	w := &Watcher{
		walker: walker,
		ignore: []string{"data/**"},
	}

	abs := func(rel string) string {
		return filepath.Join(root, filepath.FromSlash(rel))
	}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"source write", fsnotify.Event{Name: abs("pkg/run.go"), Op: fsnotify.Write}, true},
		{"source create", fsnotify.Event{Name: abs("cmd/main.go"), Op: fsnotify.Create}, true},
		{"source remove", fsnotify.Event{Name: abs("pkg/run.go"), Op: fsnotify.Remove}, true},
		{"chmod ignored", fsnotify.Event{Name: abs("pkg/run.go"), Op: fsnotify.Chmod}, false},
		{"hidden file ignored", fsnotify.Event{Name: abs(".cache/run.go"), Op: fsnotify.Write}, false},
		{"excluded tree ignored", fsnotify.Event{Name: abs("vendor/dep/dep.go"), Op: fsnotify.Write}, false},
		{"ignore glob wins", fsnotify.Event{Name: abs("data/history.db"), Op: fsnotify.Write}, false},
		{"outside root ignored", fsnotify.Event{Name: filepath.Join(root, "..", "elsewhere.go"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestNewWatcher_Validation(t *testing.T) {
	root := t.TempDir()
	walker, err := NewWalker(config.SourceConfig{Root: root})
	if err != nil {
		t.Fatalf("NewWalker() error = %v", err)
	}

	if _, err := NewWatcher(nil, WatchConfig{}, nil); err == nil {
		t.Error("NewWatcher(nil walker) error = nil, want error")
	}

	if _, err := NewWatcher(walker, WatchConfig{Ignore: []string{"[bad"}}, nil); err == nil {
		t.Error("NewWatcher() with invalid ignore glob error = nil, want error")
	}

	w, err := NewWatcher(walker, WatchConfig{Debounce: time.Second}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() before Watch error = %v", err)
	}
}
