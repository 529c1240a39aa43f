package pattern

import (
	"context"
	"strings"
	"testing"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

func TestLogicConservationCheck(t *testing.T) {
	deps := declare(t, RuleLogicConservation, policy.SeverityError, "", map[string]interface{}{
		"min_ratio": 0.5,
	})
	check, err := newLogicConservationCheck(deps)
	if err != nil {
		t.Fatalf("newLogicConservationCheck() error = %v", err)
	}

	tests := []struct {
		name        string
		preDensity  int
		inBaseline  bool
		post        string
		wantFinding bool
	}{
		{"shrunk below threshold", 1000, true, strings.Repeat("x", 400), true},
		{"shrunk within threshold", 1000, true, strings.Repeat("x", 600), false},
		{"exactly at threshold", 1000, true, strings.Repeat("x", 500), false},
		{"grew", 1000, true, strings.Repeat("x", 1500), false},
		{"new file skipped", 0, false, strings.Repeat("x", 10), false},
		{"empty pre-image skipped", 0, true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseline := stubBaseline{}
			if tt.inBaseline {
				baseline["pkg/edited.go"] = tt.preDensity
			}
			actx := testContext(audit.ContextConfig{
				ModifiedFiles: []string{"pkg/edited.go"},
				Baseline:      baseline,
			}, map[string]string{
				"pkg/edited.go": tt.post,
			})

			findings, err := check.Execute(context.Background(), actx)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := len(findings) > 0; got != tt.wantFinding {
				t.Errorf("finding emitted = %v, want %v (findings: %v)", got, tt.wantFinding, findings)
			}
		})
	}
}

func TestLogicConservationCheck_Message(t *testing.T) {
	deps := declare(t, RuleLogicConservation, policy.SeverityError, "", nil)
	check, err := newLogicConservationCheck(deps)
	if err != nil {
		t.Fatalf("newLogicConservationCheck() error = %v", err)
	}

	actx := testContext(audit.ContextConfig{
		ModifiedFiles: []string{"pkg/edited.go"},
		Baseline:      stubBaseline{"pkg/edited.go": 1000},
	}, map[string]string{
		"pkg/edited.go": strings.Repeat("x", 400),
	})

	findings, err := check.Execute(context.Background(), actx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Execute() returned %d findings, want 1", len(findings))
	}

	f := findings[0]
	if f.Severity != policy.SeverityError {
		t.Errorf("Severity = %v, want %v", f.Severity, policy.SeverityError)
	}
	wantMsg := "non-whitespace density dropped 60% (ratio 0.40 below minimum 0.50)"
	if f.Message != wantMsg {
		t.Errorf("Message = %q, want %q", f.Message, wantMsg)
	}
}

func TestLogicConservationCheck_DeletedFile(t *testing.T) {
	deps := declare(t, RuleLogicConservation, policy.SeverityError, "", nil)
	check, err := newLogicConservationCheck(deps)
	if err != nil {
		t.Fatalf("newLogicConservationCheck() error = %v", err)
	}

	// The modified list names a file the reader no longer has.
	actx := testContext(audit.ContextConfig{
		ModifiedFiles: []string{"pkg/gone.go"},
		Baseline:      stubBaseline{"pkg/gone.go": 800},
	}, map[string]string{})

	findings, err := check.Execute(context.Background(), actx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Execute() returned %d findings, want 1", len(findings))
	}
	if !strings.Contains(findings[0].Message, "100%") {
		t.Errorf("Message = %q, want full evaporation reported", findings[0].Message)
	}
}

func TestLogicConservationCheck_ScopeFiltersModified(t *testing.T) {
	deps := declare(t, RuleLogicConservation, policy.SeverityError, "internal/**", nil)
	check, err := newLogicConservationCheck(deps)
	if err != nil {
		t.Fatalf("newLogicConservationCheck() error = %v", err)
	}

	actx := testContext(audit.ContextConfig{
		ModifiedFiles: []string{"docs/guide.md"},
		Baseline:      stubBaseline{"docs/guide.md": 1000},
	}, map[string]string{
		"docs/guide.md": "x",
	})

	findings, err := check.Execute(context.Background(), actx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("Execute() returned %d findings for out-of-scope file, want 0", len(findings))
	}
}

func TestLogicConservationCheck_MissingBaseline(t *testing.T) {
	deps := declare(t, RuleLogicConservation, policy.SeverityError, "", nil)
	check, err := newLogicConservationCheck(deps)
	if err != nil {
		t.Fatalf("newLogicConservationCheck() error = %v", err)
	}

	actx := testContext(audit.ContextConfig{
		ModifiedFiles: []string{"pkg/edited.go"},
	}, map[string]string{
		"pkg/edited.go": "x",
	})

	if _, err := check.Execute(context.Background(), actx); err == nil {
		t.Fatal("Execute() error = nil, want missing baseline failure")
	}
}

func TestNewLogicConservationCheck_InvalidRatio(t *testing.T) {
	deps := declare(t, RuleLogicConservation, policy.SeverityError, "", map[string]interface{}{
		"min_ratio": 1.5,
	})
	if _, err := newLogicConservationCheck(deps); err == nil {
		t.Fatal("newLogicConservationCheck() error = nil, want range failure")
	}
}
