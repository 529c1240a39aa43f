package treewalk

import (
	"context"
	"testing"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

func legacyDeps(t *testing.T) audit.Deps {
	t.Helper()
	store := policy.NewStore()
	p := &policy.Policy{
		ID:         "test-policy",
		SourceFile: "test.yaml",
		Rules: []*policy.RuleSpec{
			{
				ID:           RuleLegacyImport,
				Severity:     policy.SeverityError,
				Params:       map[string]interface{}{"namespaces": []interface{}{"oldcorp/monolith"}},
				SourcePolicy: "test-policy",
			},
			{
				ID:           RuleLegacyCall,
				Severity:     policy.SeverityWarning,
				Params:       map[string]interface{}{"namespaces": []interface{}{"oldcorp/monolith"}},
				SourcePolicy: "test-policy",
			},
		},
	}
	if err := store.Register(p); err != nil {
		t.Fatal(err)
	}
	return audit.Deps{Policies: store}
}

func TestLegacyAccessCheck(t *testing.T) {
	check, err := newLegacyAccessCheck(legacyDeps(t), newASTCache())
	if err != nil {
		t.Fatalf("newLegacyAccessCheck() error = %v", err)
	}

	if got := check.RuleIDs(); len(got) != 2 {
		t.Fatalf("RuleIDs() = %v, want both legacy rules", got)
	}

	actx := testContext(map[string]string{
		"internal/bridge.go": `package bridge

import (
	olddb "oldcorp/monolith/db"

	"wardenhq/warden/pkg/policy"
)

func migrate() error {
	if err := olddb.Connect(); err != nil {
		return err
	}
	_ = policy.NewStore()
	return nil
}
`,
	})

	findings, err := check.Execute(context.Background(), actx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var imports, calls int
	for _, f := range findings {
		switch f.RuleID {
		case RuleLegacyImport:
			imports++
			if f.Line != 4 {
				t.Errorf("import finding at line %d, want 4", f.Line)
			}
			if f.Severity != policy.SeverityError {
				t.Errorf("import severity = %v, want %v", f.Severity, policy.SeverityError)
			}
		case RuleLegacyCall:
			calls++
			if f.Line != 10 {
				t.Errorf("call finding at line %d, want 10", f.Line)
			}
			if f.Severity != policy.SeverityWarning {
				t.Errorf("call severity = %v, want %v", f.Severity, policy.SeverityWarning)
			}
		default:
			t.Errorf("unexpected rule %q", f.RuleID)
		}
	}
	if imports != 1 || calls != 1 {
		t.Errorf("findings = %d imports, %d calls, want 1 and 1", imports, calls)
	}
}

func TestLegacyAccessCheck_NoNamespacesConfigured(t *testing.T) {
	// Without deny-listed namespaces the check has nothing to enforce.
	check, err := newLegacyAccessCheck(audit.Deps{}, newASTCache())
	if err != nil {
		t.Fatalf("newLegacyAccessCheck() error = %v", err)
	}

	actx := testContext(map[string]string{
		"internal/bridge.go": `package bridge

import olddb "oldcorp/monolith/db"

var _ = olddb.Connect
`,
	})

	findings, err := check.Execute(context.Background(), actx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("Execute() returned %d findings, want 0", len(findings))
	}
}
