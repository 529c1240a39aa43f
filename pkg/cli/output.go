package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"wardenhq/warden/pkg/audit"
)

// timeRounding trims run durations to a readable precision.
const timeRounding = time.Millisecond

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatText is human-readable output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is machine-readable JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseFormat parses an --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q (options: text, json)", s)
	}
}

// WriteRun renders an audit run in the given format.
func WriteRun(w io.Writer, run *audit.Run, format OutputFormat) error {
	if format == FormatJSON {
		return WriteJSON(w, run)
	}
	return writeRunText(w, run)
}

// writeRunText renders the run the way a developer reads it: findings
// first (sorted by file and line), then the coverage accounting, then
// the verdict on the last line.
func writeRunText(w io.Writer, run *audit.Run) error {
	findings := append([]audit.Finding(nil), run.Findings...)
	audit.SortFindings(findings)

	for _, f := range findings {
		if _, err := fmt.Fprintln(w, f.String()); err != nil {
			return err
		}
	}
	if len(findings) > 0 {
		fmt.Fprintln(w)
	}

	s := run.Stats
	fmt.Fprintf(w, "rules: %d/%d enforced (%.1f%%)\n",
		s.RulesEnforced, s.RulesTotal, s.ExecutionRate*100)
	if len(s.UnmappedRuleIDs) > 0 {
		fmt.Fprintf(w, "unmapped: %s\n", strings.Join(s.UnmappedRuleIDs, ", "))
	}
	if len(s.CrashedRuleIDs) > 0 {
		fmt.Fprintf(w, "crashed: %s\n", strings.Join(s.CrashedRuleIDs, ", "))
	}
	fmt.Fprintf(w, "duration: %s\n", run.Duration().Round(timeRounding))

	if run.Status == audit.StatusCancelled {
		fmt.Fprintln(w, "status: cancelled (partial results)")
	}

	_, err := fmt.Fprintf(w, "verdict: %s\n", run.Verdict)
	return err
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
