package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// Config contains configuration for the history store.
type Config struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the
	// database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultConfig returns the default history store configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:         "data/history.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// RunSummary is the archive's view of one run without its findings.
type RunSummary struct {
	ID            string              `json:"id"`
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    time.Time           `json:"finished_at"`
	Verdict       string              `json:"verdict"`
	Status        string              `json:"status"`
	Trigger       string              `json:"trigger"`
	PolicyVersion string              `json:"policy_version,omitempty"`
	Stats         audit.CoverageStats `json:"stats"`
	FindingCount  int                 `json:"finding_count"`
}

// ArchivedRun is one run read back from the archive, findings included.
type ArchivedRun struct {
	RunSummary
	ExecutedRuleIDs []string        `json:"executed_rule_ids"`
	Findings        []audit.Finding `json:"findings"`
}

// Store is the SQLite-backed audit run archive.
type Store struct {
	db        *sql.DB
	config    *Config
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewStore opens (creating if needed) the history database and ensures
// the schema is at the expected version.
func NewStore(config *Config, logger *slog.Logger) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &Store{
		db:     db,
		config: config,
		logger: logger.With("component", "history"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("history store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *Store) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := s.db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("history schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// Archive persists one finished run and its findings. trigger records
// what started the run ("manual", "watch", "schedule").
func (s *Store) Archive(ctx context.Context, run *audit.Run, trigger string) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	executedIDs, _ := json.Marshal(run.ExecutedRuleIDs)
	unmappedIDs, _ := json.Marshal(run.Stats.UnmappedRuleIDs)
	crashedIDs, _ := json.Marshal(run.Stats.CrashedRuleIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, verdict, status, trigger, policy_version,
			rules_total, rules_enforced, rules_unmapped, rules_crashed, execution_rate,
			executed_rule_ids, unmapped_rule_ids, crashed_rule_ids,
			finding_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.StartedAt, run.FinishedAt,
		run.Verdict.String(), run.Status.String(), trigger, run.PolicyVersion,
		run.Stats.RulesTotal, run.Stats.RulesEnforced, run.Stats.RulesUnmapped,
		run.Stats.RulesCrashed, run.Stats.ExecutionRate,
		string(executedIDs), string(unmappedIDs), string(crashedIDs),
		len(run.Findings),
	)
	if err != nil {
		return fmt.Errorf("failed to archive run %s: %w", run.ID, err)
	}

	if len(run.Findings) > 0 {
		insert, err := tx.PrepareContext(ctx, `
			INSERT INTO findings (run_id, check_id, rule_id, severity, message, file_path, line)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare finding insert: %w", err)
		}
		defer insert.Close()

		// Findings are sorted on the way in so two archives of identical
		// runs produce identical rows regardless of dispatch order.
		findings := append([]audit.Finding(nil), run.Findings...)
		audit.SortFindings(findings)
		for _, f := range findings {
			if _, err := insert.ExecContext(ctx,
				run.ID, f.CheckID, f.RuleID, f.Severity.String(), f.Message, f.FilePath, f.Line,
			); err != nil {
				return fmt.Errorf("failed to archive finding: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive: %w", err)
	}

	s.logger.Debug("run archived",
		"run_id", run.ID,
		"verdict", run.Verdict.String(),
		"findings", len(run.Findings),
	)
	return nil
}

// Recent returns the most recent run summaries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, verdict, status, trigger, policy_version,
		       rules_total, rules_enforced, rules_unmapped, rules_crashed, execution_rate,
		       unmapped_rule_ids, crashed_rule_ids, finding_count
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return summaries, nil
}

// Get reads one archived run with its findings. ok is false when the
// run ID is not archived.
func (s *Store) Get(ctx context.Context, runID string) (*ArchivedRun, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, verdict, status, trigger, policy_version,
		       rules_total, rules_enforced, rules_unmapped, rules_crashed, execution_rate,
		       unmapped_rule_ids, crashed_rule_ids, finding_count,
		       executed_rule_ids
		FROM runs
		WHERE id = ?
	`, runID)

	var (
		run         ArchivedRun
		policyVer   sql.NullString
		unmappedIDs string
		crashedIDs  string
		executedIDs string
	)
	err := row.Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.Verdict, &run.Status,
		&run.Trigger, &policyVer,
		&run.Stats.RulesTotal, &run.Stats.RulesEnforced, &run.Stats.RulesUnmapped,
		&run.Stats.RulesCrashed, &run.Stats.ExecutionRate,
		&unmappedIDs, &crashedIDs, &run.FindingCount,
		&executedIDs,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	run.PolicyVersion = policyVer.String
	unmarshalIDs(unmappedIDs, &run.Stats.UnmappedRuleIDs)
	unmarshalIDs(crashedIDs, &run.Stats.CrashedRuleIDs)
	unmarshalIDs(executedIDs, &run.ExecutedRuleIDs)

	findings, err := s.findings(ctx, runID)
	if err != nil {
		return nil, false, err
	}
	run.Findings = findings

	return &run, true, nil
}

// findings reads the archived findings of one run in archive order.
func (s *Store) findings(ctx context.Context, runID string) ([]audit.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT check_id, rule_id, severity, message, file_path, line
		FROM findings
		WHERE run_id = ?
		ORDER BY file_path, line, check_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	findings := []audit.Finding{}
	for rows.Next() {
		var (
			f        audit.Finding
			severity string
			filePath sql.NullString
			line     sql.NullInt64
		)
		if err := rows.Scan(&f.CheckID, &f.RuleID, &severity, &f.Message, &filePath, &line); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		parsed, err := policy.ParseSeverity(severity)
		if err != nil {
			return nil, fmt.Errorf("archived finding has bad severity: %w", err)
		}
		f.Severity = parsed
		f.FilePath = filePath.String
		f.Line = int(line.Int64)
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate findings: %w", err)
	}

	return findings, nil
}

// Count returns the number of archived runs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Prune deletes runs that started before the cutoff, cascading to their
// findings. Returns the number of runs deleted.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}
	return deleted, nil
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		closeErr = s.db.Close()
	})
	return closeErr
}

// scanSummary scans one runs row into a RunSummary.
func scanSummary(rows *sql.Rows) (RunSummary, error) {
	var (
		summary     RunSummary
		policyVer   sql.NullString
		unmappedIDs string
		crashedIDs  string
	)
	err := rows.Scan(
		&summary.ID, &summary.StartedAt, &summary.FinishedAt,
		&summary.Verdict, &summary.Status, &summary.Trigger, &policyVer,
		&summary.Stats.RulesTotal, &summary.Stats.RulesEnforced,
		&summary.Stats.RulesUnmapped, &summary.Stats.RulesCrashed,
		&summary.Stats.ExecutionRate,
		&unmappedIDs, &crashedIDs, &summary.FindingCount,
	)
	if err != nil {
		return RunSummary{}, err
	}
	summary.PolicyVersion = policyVer.String
	unmarshalIDs(unmappedIDs, &summary.Stats.UnmappedRuleIDs)
	unmarshalIDs(crashedIDs, &summary.Stats.CrashedRuleIDs)
	return summary, nil
}

// unmarshalIDs decodes a JSON-encoded ID list, tolerating empty columns
// from older rows.
func unmarshalIDs(raw string, out *[]string) {
	if raw == "" || raw == "null" {
		return
	}
	_ = json.Unmarshal([]byte(raw), out)
}
