package policy

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity is the ordered severity scale for rules and the findings they
// produce: success < info < warning < error. Only error is blocking.
type Severity int

const (
	// SeveritySuccess records an affirmative observation. Never blocking.
	SeveritySuccess Severity = iota

	// SeverityInfo is advisory output with no enforcement weight.
	SeverityInfo

	// SeverityWarning flags a problem that does not block by itself.
	SeverityWarning

	// SeverityError is the only blocking severity. A single error-level
	// finding fails the audit.
	SeverityError
)

// severityNames maps severities to their canonical wire form.
var severityNames = map[Severity]string{
	SeveritySuccess: "success",
	SeverityInfo:    "info",
	SeverityWarning: "warning",
	SeverityError:   "error",
}

// String returns the canonical lower-case name of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Blocking reports whether the severity blocks an audit on its own.
func (s Severity) Blocking() bool {
	return s == SeverityError
}

// Valid reports whether the severity is one of the defined levels.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

// ParseSeverity converts a case-insensitive severity name to its value.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "success":
		return SeveritySuccess, nil
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return SeveritySuccess, fmt.Errorf("unknown severity %q", name)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Policy is a named, versioned bundle of rules loaded from one YAML
// document. Policies are immutable after load.
type Policy struct {
	// ID is the unique policy identifier (kebab-case by convention)
	ID string

	// Version is the policy version string
	Version string

	// Description is the human-readable policy description
	Description string

	// Author is the policy author
	Author string

	// Tags categorize the policy for filtering
	Tags []string

	// Rules are the rule specifications declared by this policy
	Rules []*RuleSpec

	// SourceFile is the path the policy was loaded from
	SourceFile string
}

// Rule returns the rule with the given ID, or nil if the policy does not
// declare it.
func (p *Policy) Rule(id string) *RuleSpec {
	for _, rule := range p.Rules {
		if rule.ID == id {
			return rule
		}
	}
	return nil
}

// RuleIDs returns the IDs of all rules declared by the policy, in
// declaration order.
func (p *Policy) RuleIDs() []string {
	ids := make([]string, 0, len(p.Rules))
	for _, rule := range p.Rules {
		ids = append(ids, rule.ID)
	}
	return ids
}

// RuleCount returns the number of rules declared by the policy.
func (p *Policy) RuleCount() int {
	return len(p.Rules)
}

// RuleSpec is a single enforceable rule: what to check, how loudly to
// report it, and where it applies.
type RuleSpec struct {
	// ID is the globally unique rule identifier. By convention it is
	// prefixed with the enforcing engine kind, e.g. "tree_walk.no_exit".
	ID string

	// Severity is the severity of findings produced for this rule
	Severity Severity

	// Scope is a glob restricting which repo-relative paths the rule
	// applies to. Supports "**" for any number of path segments. An
	// empty scope applies everywhere.
	Scope string

	// Params is the open parameter map consumed by the enforcing check
	Params map[string]interface{}

	// SourcePolicy is the ID of the policy that declared this rule
	SourcePolicy string

	// Mandatory marks rules whose enforcement gaps degrade the audit
	// verdict. When the document omits the flag it defaults to true for
	// error-severity rules and false otherwise.
	Mandatory bool
}

// AppliesTo reports whether the rule's scope covers the given
// repo-relative path.
func (r *RuleSpec) AppliesTo(relPath string) bool {
	return MatchScope(r.Scope, relPath)
}

// DecodeParams decodes the rule's parameter map into a typed parameter
// struct. Unknown keys are ignored; type mismatches are errors.
func (r *RuleSpec) DecodeParams(out interface{}) error {
	if len(r.Params) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("rule %q: encode params: %w", r.ID, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("rule %q: decode params: %w", r.ID, err)
	}
	return nil
}

// MatchScope reports whether a repo-relative path matches a scope glob.
// The glob uses forward slashes and path.Match syntax per segment, with
// "**" matching any number of segments (including none). An empty
// pattern matches every path.
func MatchScope(pattern, relPath string) bool {
	if pattern == "" || pattern == "**" {
		return true
	}
	pat := strings.Split(path.Clean(strings.ReplaceAll(pattern, "\\", "/")), "/")
	parts := strings.Split(path.Clean(strings.ReplaceAll(relPath, "\\", "/")), "/")
	return matchSegments(pat, parts)
}

func matchSegments(pat, parts []string) bool {
	if len(pat) == 0 {
		return len(parts) == 0
	}
	if pat[0] == "**" {
		// Match zero segments, or consume one and retry.
		if matchSegments(pat[1:], parts) {
			return true
		}
		if len(parts) == 0 {
			return false
		}
		return matchSegments(pat, parts[1:])
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pat[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], parts[1:])
}

// ValidateScope checks that a scope glob is well-formed. It returns the
// underlying path.ErrBadPattern for malformed segments.
func ValidateScope(pattern string) error {
	if pattern == "" {
		return nil
	}
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "**" {
			continue
		}
		if _, err := path.Match(seg, "probe"); err != nil {
			return fmt.Errorf("scope %q: %w", pattern, err)
		}
	}
	return nil
}
