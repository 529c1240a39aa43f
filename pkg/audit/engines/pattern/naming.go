package pattern

import (
	"context"
	"fmt"
	"path"
	"regexp"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// namingParams configure the file naming rule.
type namingParams struct {
	// Pattern is the regular expression every base name must match.
	Pattern string `yaml:"pattern"`

	// Exclude lists scope globs exempt from the rule.
	Exclude []string `yaml:"exclude"`
}

// defaultNamingPattern is conventional Go source naming: lowercase with
// underscores.
const defaultNamingPattern = `^[a-z0-9_.]+$`

// fileNamingCheck verifies file base names against a pattern compiled at
// construction time. A pattern that does not compile fails engine
// construction rather than every audit run.
type fileNamingCheck struct {
	audit.Binding
	pattern *regexp.Regexp
	exclude []string
}

func newFileNamingCheck(deps audit.Deps) (*fileNamingCheck, error) {
	params := namingParams{Pattern: defaultNamingPattern}
	if err := audit.DecodeRuleParams(deps, RuleFileNaming, &params); err != nil {
		return nil, err
	}

	re, err := regexp.Compile(params.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", params.Pattern, err)
	}
	for _, glob := range params.Exclude {
		if err := policy.ValidateScope(glob); err != nil {
			return nil, fmt.Errorf("exclude glob %q: %w", glob, err)
		}
	}

	return &fileNamingCheck{
		Binding: audit.Bind(deps, RuleFileNaming, policy.SeverityWarning),
		pattern: re,
		exclude: params.Exclude,
	}, nil
}

// ID implements audit.Check.
func (c *fileNamingCheck) ID() string { return "file_naming" }

// RuleIDs implements audit.Check.
func (c *fileNamingCheck) RuleIDs() []string { return []string{RuleFileNaming} }

// Execute implements audit.Check.
func (c *fileNamingCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var findings []audit.Finding
	for _, sf := range actx.FilesMatching(c.Scope) {
		if c.excluded(sf.Path) {
			continue
		}
		base := path.Base(sf.Path)
		if c.pattern.MatchString(base) {
			continue
		}
		findings = append(findings, c.Finding(c.ID(),
			fmt.Sprintf("file name %q does not match required pattern %s", base, c.pattern),
			sf.Path, 0))
	}
	return findings, nil
}

func (c *fileNamingCheck) excluded(relPath string) bool {
	for _, glob := range c.exclude {
		if policy.MatchScope(glob, relPath) {
			return true
		}
	}
	return false
}
