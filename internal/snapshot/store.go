package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"wardenhq/warden/pkg/audit"
)

// schema holds the density table plus a single-row metadata table
// describing when and over what root the snapshot was taken.
const schema = `
CREATE TABLE IF NOT EXISTS densities (
	path TEXT PRIMARY KEY,
	density INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	root TEXT NOT NULL,
	taken_at INTEGER NOT NULL,
	file_count INTEGER NOT NULL
);
`

// Config configures the snapshot store.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Store is the SQLite-backed density baseline. It implements
// audit.BaselineSource for runs configured to baseline against a
// snapshot instead of git history.
type Store struct {
	db        *sql.DB
	path      string
	logger    *slog.Logger
	closeOnce sync.Once

	densityStmt *sql.Stmt
}

// Info describes the stored snapshot.
type Info struct {
	// Root is the audited tree the snapshot was taken over.
	Root string `json:"root"`

	// TakenAt is when the snapshot was taken.
	TakenAt time.Time `json:"taken_at"`

	// FileCount is the number of files recorded.
	FileCount int `json:"file_count"`
}

// Open opens (creating if needed) the snapshot store at the given path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	return OpenWithConfig(Config{Path: path}, logger)
}

// OpenWithConfig opens the snapshot store with explicit settings.
func OpenWithConfig(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("snapshot db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot db: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		path:   cfg.Path,
		logger: logger.With("component", "snapshot"),
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	s.densityStmt, err = db.Prepare(`SELECT density FROM densities WHERE path = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare density statement: %w", err)
	}

	return s, nil
}

// Take replaces the stored snapshot with the density of every given
// file as read right now. The swap is one transaction: concurrent
// Density readers see either the old snapshot or the new one, never a
// mix. progress, when non-nil, is called after each file.
func (s *Store) Take(ctx context.Context, root string, files []audit.SourceFile, reader audit.FileReader, progress func(done, total int64)) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM densities`); err != nil {
		return 0, fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO densities (path, density, size_bytes) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer insert.Close()

	total := int64(len(files))
	recorded := 0
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		content, err := reader.ReadFile(f.Path)
		if err != nil {
			// A file that disappeared between enumeration and read has
			// nothing to conserve; skip it rather than abort the pass.
			s.logger.Warn("skipping unreadable file", "path", f.Path, "error", err)
			continue
		}

		if _, err := insert.ExecContext(ctx, f.Path, audit.Density(content), len(content)); err != nil {
			return 0, fmt.Errorf("failed to record %s: %w", f.Path, err)
		}
		recorded++

		if progress != nil {
			progress(int64(i+1), total)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, root, taken_at, file_count)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			root = excluded.root,
			taken_at = excluded.taken_at,
			file_count = excluded.file_count
	`, root, time.Now().Unix(), recorded)
	if err != nil {
		return 0, fmt.Errorf("failed to record snapshot metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Info("density snapshot taken",
		"root", root,
		"files", recorded,
		"path", s.path,
	)
	return recorded, nil
}

// Density implements audit.BaselineSource. ok is false for paths the
// snapshot never recorded.
func (s *Store) Density(relPath string) (int, bool, error) {
	var density int
	err := s.densityStmt.QueryRow(relPath).Scan(&density)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read density for %s: %w", relPath, err)
	}
	return density, true, nil
}

// Info returns metadata about the stored snapshot. ok is false when no
// snapshot has been taken yet.
func (s *Store) Info(ctx context.Context) (Info, bool, error) {
	var (
		info    Info
		takenAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT root, taken_at, file_count FROM snapshot_meta WHERE id = 1`,
	).Scan(&info.Root, &takenAt, &info.FileCount)
	if err == sql.ErrNoRows {
		return Info{}, false, nil
	}
	if err != nil {
		return Info{}, false, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}
	info.TakenAt = time.Unix(takenAt, 0)
	return info, true, nil
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.densityStmt != nil {
			s.densityStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})
	return closeErr
}
