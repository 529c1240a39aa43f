package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"wardenhq/warden/pkg/policy"
)

// WatchConfig configures the source tree watcher.
type WatchConfig struct {
	// Debounce is the quiet period after the last change before the
	// callback fires (default: 2s).
	Debounce time.Duration

	// Ignore drops events on matching repo-relative paths even when the
	// walker admits them. Watch mode puts its own databases here so run
	// archives do not retrigger runs.
	Ignore []string
}

// Watcher monitors the audited tree and triggers a re-audit callback on
// changes. Visibility follows the walker: an event only counts when the
// changed path is one a walk would enumerate. Directories created while
// watching are added to the watch list.
type Watcher struct {
	watcher  *fsnotify.Watcher
	walker   *Walker
	logger   *slog.Logger
	ignore   []string
	debounce *policy.Debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// DefaultWatchDebounce is the quiet period used when the configuration
// does not set one.
const DefaultWatchDebounce = 2 * time.Second

// NewWatcher creates a watcher over the walker's tree.
func NewWatcher(walker *Walker, cfg WatchConfig, logger *slog.Logger) (*Watcher, error) {
	if walker == nil {
		return nil, fmt.Errorf("walker is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	for _, glob := range cfg.Ignore {
		if err := policy.ValidateScope(glob); err != nil {
			return nil, fmt.Errorf("invalid ignore glob: %w", err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		walker:   walker,
		logger:   logger.With("component", "source_watcher"),
		ignore:   cfg.Ignore,
		debounce: policy.NewDebouncer(debounce),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until the context is cancelled or
// Stop is called. Each debounced change batch invokes onChange once.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.addTree(w.walker.Root()); err != nil {
		return fmt.Errorf("failed to watch source tree: %w", err)
	}

	w.logger.Info("source watcher started", "root", w.walker.Root())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("source watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("source watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// New directories must be registered before their contents
			// produce events.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory",
							"path", event.Name, "error", err)
					}
				}
			}

			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("source change", "path", event.Name, "op", event.Op.String())
			w.debounce.Trigger(onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("source watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// addTree registers dir and every visible subdirectory with the fsnotify
// watcher, pruning the same subtrees a walk would prune.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.walker.Root() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(w.walker.Root(), path)
			if err != nil {
				return err
			}
			if w.walker.excludesDir(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		return nil
	})
}

// relevant reports whether an event should trigger a re-audit: a
// non-chmod change to a path the walker admits and no ignore glob
// matches.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}

	rel, err := filepath.Rel(w.walker.Root(), event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}

	for _, glob := range w.ignore {
		if policy.MatchScope(glob, rel) {
			return false
		}
	}
	return w.walker.Admits(rel)
}
