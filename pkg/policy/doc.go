// Package policy provides the declarative rule model for the Warden
// governance engine: loading, validating, and storing policies from the
// file system.
//
// A policy is a named, versioned bundle of rules loaded from one YAML
// document. Each rule carries a globally unique identifier, an ordered
// severity, a scope glob restricting which files it applies to, and an
// open parameter map consumed by the check that enforces it. Policies are
// immutable after load; hot-reload replaces the whole set atomically.
//
// # Core Components
//
// Loader handles file system operations and YAML parsing, supporting both
// single files and directory trees with per-file error collection.
//
// Store provides thread-safe in-memory storage for loaded policies with a
// flat rule index. Rule identifiers must be unique across the entire
// active set; a collision is a load-time error, never a silent override.
//
// Watcher monitors the policy directory for changes and triggers reloads
// with debouncing to prevent reload storms.
//
// # Severity
//
// Severities form a strict order: success < info < warning < error. Only
// error is blocking. The mapping from findings to an audit verdict lives
// in the audit package; this package only defines the scale.
//
// # Rule Parameters
//
// Rule parameters stay an open YAML map at the model layer. Checks decode
// the map into their own typed parameter structs via RuleSpec.DecodeParams
// so malformed parameters surface when the enforcing engine is built, not
// in the middle of an audit.
//
// # Error Handling
//
// LoadError covers file system failures (missing files, size limits,
// encoding), ParseError covers YAML syntax, ValidationError covers
// semantic problems inside one document, and DuplicateRuleError covers
// rule identifier collisions across the set. All propagate to the caller;
// a policy set that cannot be loaded must never produce a passing audit.
package policy
