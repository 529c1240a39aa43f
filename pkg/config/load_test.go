package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
audit:
  workers: 8
  timeout: 2m
policy:
  dir: ./rules
source:
  root: ./src
  baseline: git
  include:
    - "**/*.go"
history:
  retention_days: 30
telemetry:
  logging:
    level: debug
    format: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Audit.Workers != 8 {
		t.Errorf("Audit.Workers = %d, want 8", cfg.Audit.Workers)
	}
	if cfg.Audit.Timeout != 2*time.Minute {
		t.Errorf("Audit.Timeout = %v, want 2m", cfg.Audit.Timeout)
	}
	if cfg.Policy.Dir != "./rules" {
		t.Errorf("Policy.Dir = %q, want ./rules", cfg.Policy.Dir)
	}
	if cfg.Source.Baseline != BaselineGit {
		t.Errorf("Source.Baseline = %q, want %q", cfg.Source.Baseline, BaselineGit)
	}
	if cfg.History.RetentionDays != 30 {
		t.Errorf("History.RetentionDays = %d, want 30", cfg.History.RetentionDays)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Telemetry.Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}

	// Unset sections still pick up defaults.
	if cfg.Watch.Schedule != DefaultWatchSchedule {
		t.Errorf("Watch.Schedule = %q, want default %q", cfg.Watch.Schedule, DefaultWatchSchedule)
	}
	if cfg.Snapshot.Path != DefaultSnapshotPath {
		t.Errorf("Snapshot.Path = %q, want default %q", cfg.Snapshot.Path, DefaultSnapshotPath)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want read error")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("error = %v, want read failure", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "audit: [not a mapping")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
audit:
  workers: 500
source:
  baseline: sideways
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("error = %v, want validation failure", err)
	}
	if !strings.Contains(err.Error(), "audit.workers") {
		t.Errorf("error = %v, want mention of audit.workers", err)
	}
	if !strings.Contains(err.Error(), "source.baseline") {
		t.Errorf("error = %v, want mention of source.baseline", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
audit:
  workers: 2
source:
  baseline: git
`)

	t.Setenv("WARDEN_AUDIT_WORKERS", "12")
	t.Setenv("WARDEN_SOURCE_BASELINE", "snapshot")
	t.Setenv("WARDEN_HISTORY_DISABLED", "true")
	t.Setenv("WARDEN_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Audit.Workers != 12 {
		t.Errorf("Audit.Workers = %d, want env override 12", cfg.Audit.Workers)
	}
	if cfg.Source.Baseline != BaselineSnapshot {
		t.Errorf("Source.Baseline = %q, want env override %q", cfg.Source.Baseline, BaselineSnapshot)
	}
	if !cfg.History.Disabled {
		t.Error("History.Disabled = false, want env override true")
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Telemetry.Logging.Level = %q, want env override warn", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_IgnoresUnparseable(t *testing.T) {
	path := writeConfigFile(t, `
audit:
  workers: 2
`)

	t.Setenv("WARDEN_AUDIT_WORKERS", "a-dozen")
	t.Setenv("WARDEN_WATCH_DEBOUNCE", "soon")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Audit.Workers != 2 {
		t.Errorf("Audit.Workers = %d, want file value 2", cfg.Audit.Workers)
	}
	if cfg.Watch.Debounce != DefaultWatchDebounce {
		t.Errorf("Watch.Debounce = %v, want default %v", cfg.Watch.Debounce, DefaultWatchDebounce)
	}
}

func TestLoadConfigOrDefault_EmptyPath(t *testing.T) {
	cfg, err := LoadConfigOrDefault("")
	if err != nil {
		t.Fatalf("LoadConfigOrDefault(\"\") error = %v", err)
	}
	if cfg.Audit.Workers != DefaultAuditWorkers {
		t.Errorf("Audit.Workers = %d, want default %d", cfg.Audit.Workers, DefaultAuditWorkers)
	}
	if cfg.Policy.Dir != DefaultPolicyDir {
		t.Errorf("Policy.Dir = %q, want default %q", cfg.Policy.Dir, DefaultPolicyDir)
	}
}

func TestLoadConfigOrDefault_EmptyPathHonorsEnv(t *testing.T) {
	t.Setenv("WARDEN_POLICY_DIR", "/srv/policies")

	cfg, err := LoadConfigOrDefault("")
	if err != nil {
		t.Fatalf("LoadConfigOrDefault(\"\") error = %v", err)
	}
	if cfg.Policy.Dir != "/srv/policies" {
		t.Errorf("Policy.Dir = %q, want env override /srv/policies", cfg.Policy.Dir)
	}
}

func TestLoadConfigOrDefault_WithPath(t *testing.T) {
	path := writeConfigFile(t, `
audit:
  workers: 3
`)
	cfg, err := LoadConfigOrDefault(path)
	if err != nil {
		t.Fatalf("LoadConfigOrDefault(path) error = %v", err)
	}
	if cfg.Audit.Workers != 3 {
		t.Errorf("Audit.Workers = %d, want file value 3", cfg.Audit.Workers)
	}
}
