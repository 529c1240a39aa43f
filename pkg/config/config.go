package config

import "time"

// Config is the root configuration structure for Warden. It contains all
// configuration sections for the audit pipeline, policy loading, source
// enumeration, run history, density snapshots, watch mode, and telemetry.
type Config struct {
	// Audit contains audit pipeline configuration including worker pool
	// sizing and the per-run time budget.
	Audit AuditConfig `yaml:"audit"`

	// Policy contains configuration for policy loading including the
	// policy directory and hot-reload settings.
	Policy PolicyConfig `yaml:"policy"`

	// Source contains configuration for source tree enumeration including
	// the audited root, include/exclude globs, and the baseline mode for
	// modified-file comparisons.
	Source SourceConfig `yaml:"source"`

	// History contains configuration for the audit run archive including
	// storage location and retention.
	History HistoryConfig `yaml:"history"`

	// Snapshot contains configuration for the density snapshot store used
	// as the baseline source outside git worktrees.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Watch contains configuration for watch mode including the audit
	// schedule and the local observability endpoint.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains configuration for observability including
	// logging, metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AuditConfig contains configuration for the audit pipeline.
type AuditConfig struct {
	// Workers is the size of the bounded worker pool dispatching checks.
	// Default: 4
	Workers int `yaml:"workers"`

	// Timeout is the wall-clock budget for one full audit run. Zero means
	// no budget; a run that exceeds it is cancelled and returns partial
	// results.
	// Default: 0
	Timeout time.Duration `yaml:"timeout"`
}

// PolicyConfig contains configuration for policy loading.
type PolicyConfig struct {
	// Dir is the directory holding policy YAML documents. Every *.yaml
	// and *.yml file in it is loaded as one policy.
	// Default: "./policies"
	Dir string `yaml:"dir"`

	// Watch enables hot reload of the policy set when files under Dir
	// change. Only effective in watch mode.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is how long to coalesce file system events before
	// reloading.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`
}

// SourceConfig contains configuration for source tree enumeration.
type SourceConfig struct {
	// Root is the root of the audited tree. Relative paths resolve
	// against the working directory.
	// Default: "."
	Root string `yaml:"root"`

	// Include restricts enumeration to paths matching any of these globs.
	// Empty means every regular file under Root.
	Include []string `yaml:"include"`

	// Exclude drops paths matching any of these globs. Applied after
	// Include.
	// Default: [".git/**", "vendor/**", "node_modules/**"]
	Exclude []string `yaml:"exclude"`

	// Baseline selects where pre-edit content densities come from.
	// Options: "auto" (git when available, else snapshot), "git",
	// "snapshot", "none".
	// Default: "auto"
	Baseline string `yaml:"baseline"`
}

// HistoryConfig contains configuration for the audit run archive.
type HistoryConfig struct {
	// Disabled turns off run archiving entirely.
	// Default: false
	Disabled bool `yaml:"disabled"`

	// Path is the SQLite database file holding archived runs.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// RetentionDays is how many days of runs to keep. Zero keeps
	// everything.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning in watch
	// mode (standard five-field syntax).
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// SnapshotConfig contains configuration for the density snapshot store.
type SnapshotConfig struct {
	// Path is the SQLite database file holding density snapshots.
	// Default: "data/snapshot.db"
	Path string `yaml:"path"`
}

// WatchConfig contains configuration for watch mode.
type WatchConfig struct {
	// Schedule is the cron expression for periodic full audits. Accepts
	// standard five-field syntax and @every intervals.
	// Default: "@every 10m"
	Schedule string `yaml:"schedule"`

	// Debounce is how long to coalesce source changes before triggering a
	// re-audit.
	// Default: 2s
	Debounce time.Duration `yaml:"debounce"`

	// ListenAddress is the address for the watch-mode HTTP endpoint
	// serving metrics and health.
	// Format: "host:port"
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics exposure configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics exposure configuration.
type MetricsConfig struct {
	// Disabled turns off the watch-mode metrics endpoint.
	// Default: false
	Disabled bool `yaml:"disabled"`

	// Path is the HTTP path the Prometheus handler is mounted on.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name attached to exported spans.
	// Default: "warden"
	ServiceName string `yaml:"service_name"`

	// TLS enables transport security towards the collector. The zero
	// value matches local collectors, which typically listen in
	// plaintext.
	// Default: false
	TLS bool `yaml:"tls"`
}
