package pattern

import (
	"bufio"
	"bytes"
	"context"
	"fmt"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// headerParams configure the comment marker expected before the path.
type headerParams struct {
	Prefix string `yaml:"prefix"`
}

const defaultHeaderPrefix = "//"

// headerPathCheck verifies that the first non-blank line of every file
// in scope restates the file's own repo-relative path as a comment. The
// restated path gives reviewers and tooling a stable anchor when files
// move.
type headerPathCheck struct {
	audit.Binding
	prefix string
}

func newHeaderPathCheck(deps audit.Deps) (*headerPathCheck, error) {
	params := headerParams{Prefix: defaultHeaderPrefix}
	if err := audit.DecodeRuleParams(deps, RuleHeaderPath, &params); err != nil {
		return nil, err
	}
	return &headerPathCheck{
		Binding: audit.Bind(deps, RuleHeaderPath, policy.SeverityWarning),
		prefix:  params.Prefix,
	}, nil
}

// ID implements audit.Check.
func (c *headerPathCheck) ID() string { return "header_path" }

// RuleIDs implements audit.Check.
func (c *headerPathCheck) RuleIDs() []string { return []string{RuleHeaderPath} }

// Execute implements audit.Check.
func (c *headerPathCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var findings []audit.Finding
	for _, sf := range actx.FilesMatching(c.Scope) {
		content, err := actx.ReadFile(sf.Path)
		if err != nil {
			return nil, err
		}

		want := c.prefix + " " + sf.Path
		line, lineNo, found := firstNonBlankLine(content)
		switch {
		case !found:
			findings = append(findings, c.Finding(c.ID(),
				fmt.Sprintf("file is blank; first line must be %q", want),
				sf.Path, 1))
		case line != want:
			findings = append(findings, c.Finding(c.ID(),
				fmt.Sprintf("first line must restate the file path: want %q", want),
				sf.Path, lineNo))
		}
	}
	return findings, nil
}

// firstNonBlankLine returns the first line with non-whitespace content,
// trimmed of trailing whitespace, along with its 1-based line number.
func firstNonBlankLine(content []byte) (string, int, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimRight(scanner.Bytes(), " \t\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return string(line), lineNo, true
	}
	return "", 0, false
}
