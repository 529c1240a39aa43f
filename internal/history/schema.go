package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the history database
// schema.
const Schema = `
-- One row per archived audit run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    verdict TEXT NOT NULL,
    status TEXT NOT NULL,
    trigger TEXT NOT NULL,
    policy_version TEXT,

    -- Coverage accounting
    rules_total INTEGER NOT NULL,
    rules_enforced INTEGER NOT NULL,
    rules_unmapped INTEGER NOT NULL,
    rules_crashed INTEGER NOT NULL,
    execution_rate REAL NOT NULL,

    -- Rule ID lists, JSON-encoded
    executed_rule_ids TEXT,
    unmapped_rule_ids TEXT,
    crashed_rule_ids TEXT,

    finding_count INTEGER NOT NULL
);

-- One row per finding of an archived run
CREATE TABLE IF NOT EXISTS findings (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    check_id TEXT NOT NULL,
    rule_id TEXT NOT NULL,
    severity TEXT NOT NULL,
    message TEXT NOT NULL,
    file_path TEXT,
    line INTEGER
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_verdict ON runs(verdict);
CREATE INDEX IF NOT EXISTS idx_findings_run_id ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_rule_id ON findings(rule_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version
// table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the
// database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
