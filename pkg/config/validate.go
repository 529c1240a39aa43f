package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g. "audit.workers").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. All validation errors are
// collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateSource(&cfg.Source)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateSnapshot(&cfg.Snapshot)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateAudit validates audit pipeline configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.workers",
			Message: "worker count must be at least 1",
		})
	}
	if cfg.Workers > 128 {
		errs = append(errs, FieldError{
			Field:   "audit.workers",
			Message: "worker count exceeds reasonable limit (128)",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.timeout",
			Message: "timeout must be non-negative",
		})
	}

	return errs
}

// validatePolicy validates policy loading configuration.
func validatePolicy(cfg *PolicyConfig) []FieldError {
	var errs []FieldError

	if cfg.Dir == "" {
		errs = append(errs, FieldError{
			Field:   "policy.dir",
			Message: "policy directory is required",
		})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "policy.debounce",
			Message: "debounce must be non-negative",
		})
	}

	return errs
}

// validateSource validates source enumeration configuration.
func validateSource(cfg *SourceConfig) []FieldError {
	var errs []FieldError

	if cfg.Root == "" {
		errs = append(errs, FieldError{
			Field:   "source.root",
			Message: "source root is required",
		})
	}

	switch cfg.Baseline {
	case BaselineAuto, BaselineGit, BaselineSnapshot, BaselineNone:
	case "":
		errs = append(errs, FieldError{
			Field:   "source.baseline",
			Message: "baseline mode is required",
		})
	default:
		errs = append(errs, FieldError{
			Field:   "source.baseline",
			Message: fmt.Sprintf("unknown baseline mode %q (options: auto, git, snapshot, none)", cfg.Baseline),
		})
	}

	for i, glob := range cfg.Include {
		if glob == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("source.include[%d]", i),
				Message: "glob must not be empty",
			})
		}
	}
	for i, glob := range cfg.Exclude {
		if glob == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("source.exclude[%d]", i),
				Message: "glob must not be empty",
			})
		}
	}

	return errs
}

// validateHistory validates run archive configuration.
func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if cfg.Disabled {
		return errs
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "history.path",
			Message: "database path is required when history is enabled",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.PruneSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "history.prune_schedule",
			Message: "prune schedule is required when history is enabled",
		})
	}

	return errs
}

// validateSnapshot validates snapshot store configuration.
func validateSnapshot(cfg *SnapshotConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "snapshot.path",
			Message: "database path is required",
		})
	}

	return errs
}

// validateWatch validates watch mode configuration.
func validateWatch(cfg *WatchConfig) []FieldError {
	var errs []FieldError

	if cfg.Schedule == "" {
		errs = append(errs, FieldError{
			Field:   "watch.schedule",
			Message: "audit schedule is required",
		})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "watch.listen_address",
			Message: "listen address is required",
		})
	}

	return errs
}

// validateTelemetry validates observability configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q (options: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q (options: json, text)", cfg.Logging.Format),
		})
	}

	if !cfg.Metrics.Disabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
