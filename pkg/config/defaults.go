package config

import "time"

// Default values for configuration fields.
const (
	// Audit defaults
	DefaultAuditWorkers = 4
	DefaultAuditTimeout = 0 * time.Second

	// Policy defaults
	DefaultPolicyDir      = "./policies"
	DefaultPolicyDebounce = 500 * time.Millisecond

	// Source defaults
	DefaultSourceRoot     = "."
	DefaultSourceBaseline = "auto"

	// History defaults
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryRetentionDays = 90
	DefaultHistoryPruneSchedule = "0 3 * * *"

	// Snapshot defaults
	DefaultSnapshotPath = "data/snapshot.db"

	// Watch defaults
	DefaultWatchSchedule      = "@every 10m"
	DefaultWatchDebounce      = 2 * time.Second
	DefaultWatchListenAddress = "127.0.0.1:9464"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "warden"
)

// Baseline modes accepted by SourceConfig.Baseline.
const (
	BaselineAuto     = "auto"
	BaselineGit      = "git"
	BaselineSnapshot = "snapshot"
	BaselineNone     = "none"
)

// DefaultConfig returns a configuration with every default applied. It is
// the configuration Warden runs with when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct. It sets
// defaults for any fields that have zero values and is idempotent.
func ApplyDefaults(cfg *Config) {
	// Audit defaults
	if cfg.Audit.Workers == 0 {
		cfg.Audit.Workers = DefaultAuditWorkers
	}

	// Policy defaults
	if cfg.Policy.Dir == "" {
		cfg.Policy.Dir = DefaultPolicyDir
	}
	if cfg.Policy.Debounce == 0 {
		cfg.Policy.Debounce = DefaultPolicyDebounce
	}

	// Source defaults
	if cfg.Source.Root == "" {
		cfg.Source.Root = DefaultSourceRoot
	}
	if len(cfg.Source.Exclude) == 0 {
		cfg.Source.Exclude = []string{".git/**", "vendor/**", "node_modules/**"}
	}
	if cfg.Source.Baseline == "" {
		cfg.Source.Baseline = DefaultSourceBaseline
	}

	// History defaults
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = DefaultHistoryRetentionDays
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}

	// Snapshot defaults
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = DefaultSnapshotPath
	}

	// Watch defaults
	if cfg.Watch.Schedule == "" {
		cfg.Watch.Schedule = DefaultWatchSchedule
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	if cfg.Watch.ListenAddress == "" {
		cfg.Watch.ListenAddress = DefaultWatchListenAddress
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}
