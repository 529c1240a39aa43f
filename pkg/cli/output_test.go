package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

func sampleRun() *audit.Run {
	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	return &audit.Run{
		ID:        "run-1",
		StartedAt: started,
		FinishedAt: started.Add(1800 * time.Millisecond),
		Findings: []audit.Finding{
			{
				CheckID:  "no_process_exit",
				RuleID:   "tree_walk.no_process_exit",
				Severity: policy.SeverityError,
				Message:  "process exit in library code",
				FilePath: "pkg/b.go",
				Line:     12,
			},
			{
				CheckID:  "gate",
				RuleID:   "workflow.gate",
				Severity: policy.SeverityWarning,
				Message:  "unchecked error",
				FilePath: "pkg/a.go",
				Line:     4,
			},
		},
		ExecutedRuleIDs: []string{"tree_walk.no_process_exit", "workflow.gate"},
		Stats: audit.CoverageStats{
			RulesTotal:      3,
			RulesEnforced:   2,
			RulesUnmapped:   1,
			ExecutionRate:   2.0 / 3.0,
			UnmappedRuleIDs: []string{"semantic.orphan"},
		},
		Verdict: audit.VerdictFail,
		Status:  audit.StatusCompleted,
	}
}

func TestWriteRun_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRun(&buf, sampleRun(), FormatText); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}
	out := buf.String()

	// Findings are sorted by file, so pkg/a.go precedes pkg/b.go.
	aIdx := strings.Index(out, "pkg/a.go:4")
	bIdx := strings.Index(out, "pkg/b.go:12")
	if aIdx < 0 || bIdx < 0 {
		t.Fatalf("output missing finding locations:\n%s", out)
	}
	if aIdx > bIdx {
		t.Errorf("findings not sorted by file:\n%s", out)
	}

	for _, want := range []string{
		"rules: 2/3 enforced (66.7%)",
		"unmapped: semantic.orphan",
		"duration: 1.8s",
		"verdict: FAIL",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRun_TextCancelled(t *testing.T) {
	run := sampleRun()
	run.Status = audit.StatusCancelled

	var buf bytes.Buffer
	if err := WriteRun(&buf, run, FormatText); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}
	if !strings.Contains(buf.String(), "cancelled (partial results)") {
		t.Errorf("output missing cancellation notice:\n%s", buf.String())
	}
}

func TestWriteRun_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRun(&buf, sampleRun(), FormatJSON); err != nil {
		t.Fatalf("WriteRun() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["verdict"] != "FAIL" {
		t.Errorf("verdict = %v, want FAIL", decoded["verdict"])
	}
	if decoded["id"] != "run-1" {
		t.Errorf("id = %v, want run-1", decoded["id"])
	}
	findings, ok := decoded["findings"].([]any)
	if !ok || len(findings) != 2 {
		t.Errorf("findings = %v, want 2 entries", decoded["findings"])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
