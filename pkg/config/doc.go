// Package config provides configuration management for Warden.
//
// This package handles loading, validating, and managing configuration
// from YAML files with environment variable overrides. It provides a
// type-safe configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("warden.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("warden.yaml")
//
//  3. Without a file, from defaults plus environment overrides:
//     cfg, err := config.LoadConfigOrDefault("")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention WARDEN_SECTION_FIELD.
// For example:
//
//   - WARDEN_AUDIT_WORKERS overrides audit.workers
//   - WARDEN_POLICY_DIR overrides policy.dir
//   - WARDEN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based
// configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For process-wide configuration access, use the singleton:
//
//	// At startup
//	if err := config.Initialize(flagConfigPath); err != nil {
//	    return err
//	}
//
//	// Anywhere afterwards
//	cfg := config.Get()
//	workers := cfg.Audit.Workers
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated during loading. Validation errors include
// field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - audit.workers: worker count must be at least 1
//	  - source.baseline: unknown baseline mode "head" (options: auto, git, snapshot, none)
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	audit:
//	  workers: 8
//
//	policy:
//	  dir: "./policies"
//
//	source:
//	  root: "."
//	  exclude: [".git/**", "vendor/**"]
//
//	history:
//	  path: "data/history.db"
//	  retention_days: 30
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "text"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton uses read-write
// locks to allow concurrent reads while protecting against concurrent
// writes during reload operations.
package config
