package workflow

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

const defaultTimeoutSeconds = 60

type commandParams struct {
	Command        []string `yaml:"command"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Dir            string   `yaml:"dir"`
}

// commandCheck executes one configured command inside the audited tree
// and converts a non-zero exit into a single finding.
type commandCheck struct {
	audit.Binding

	id      string
	command []string
	timeout time.Duration
	dir     string
}

func newCommandCheck(deps audit.Deps, rule *policy.RuleSpec) (*commandCheck, error) {
	id := strings.TrimPrefix(rule.ID, RulePrefix)
	if id == "" {
		return nil, fmt.Errorf("rule %q: no check name after the %q prefix", rule.ID, RulePrefix)
	}

	params := commandParams{TimeoutSeconds: defaultTimeoutSeconds}
	if err := rule.DecodeParams(&params); err != nil {
		return nil, err
	}
	if len(params.Command) == 0 {
		return nil, fmt.Errorf("rule %q: command is required", rule.ID)
	}
	if params.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("rule %q: timeout_seconds must be positive, got %d", rule.ID, params.TimeoutSeconds)
	}
	if filepath.IsAbs(params.Dir) {
		return nil, fmt.Errorf("rule %q: dir must be repo-relative, got %q", rule.ID, params.Dir)
	}

	return &commandCheck{
		Binding: audit.Bind(deps, rule.ID, policy.SeverityError),
		id:      id,
		command: params.Command,
		timeout: time.Duration(params.TimeoutSeconds) * time.Second,
		dir:     params.Dir,
	}, nil
}

// ID implements audit.Check.
func (c *commandCheck) ID() string { return c.id }

// RuleIDs implements audit.Check.
func (c *commandCheck) RuleIDs() []string { return []string{c.RuleID} }

// Execute runs the command under its wall-clock budget. A clean exit
// produces no findings; a non-zero exit or a timeout produces exactly
// one. A command that cannot be started is an execution error so the
// bound rule counts as crashed rather than clean.
func (c *commandCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.command[0], c.command[1:]...)
	cmd.Dir = filepath.Join(actx.RepoRoot(), c.dir)
	// Unblocks Wait when a killed child leaves grandchildren holding the
	// output pipe.
	cmd.WaitDelay = 5 * time.Second

	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		msg := fmt.Sprintf("command timed out after %s", c.timeout)
		return []audit.Finding{c.Finding(c.id, msg, "", 0)}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := firstOutputLine(out)
		if msg == "" {
			msg = fmt.Sprintf("command exited with status %d", exitErr.ExitCode())
		}
		return []audit.Finding{c.Finding(c.id, msg, "", 0)}, nil
	}
	return nil, fmt.Errorf("running %q: %w", strings.Join(c.command, " "), err)
}

// firstOutputLine returns the first non-blank line of combined output,
// trimmed. Most tools put their headline diagnostic there.
func firstOutputLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
