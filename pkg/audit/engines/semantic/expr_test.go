package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/cel-go/cel"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

type stubIndex struct {
	symbols []audit.Symbol
	loadErr error
}

func (s *stubIndex) Load(context.Context) error { return s.loadErr }
func (s *stubIndex) Symbols() []audit.Symbol    { return s.symbols }

func testEnv(t *testing.T) *cel.Env {
	t.Helper()
	env, err := cel.NewEnv(
		cel.Variable("symbol", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		t.Fatalf("cel.NewEnv() error = %v", err)
	}
	return env
}

func queryCheck(t *testing.T, severity policy.Severity, scope string, params map[string]interface{}) *exprCheck {
	t.Helper()
	rule := &policy.RuleSpec{ID: "semantic.query", Severity: severity, Scope: scope, Params: params}
	store := policy.NewStore()
	pol := &policy.Policy{ID: "test-policy", Version: "1.0.0", Rules: []*policy.RuleSpec{rule}}
	if err := store.Register(pol); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	check, err := newExprCheck(audit.Deps{Policies: store}, testEnv(t), rule)
	if err != nil {
		t.Fatalf("newExprCheck() error = %v", err)
	}
	return check
}

func indexContext(idx audit.SymbolIndex) *audit.Context {
	return audit.NewContext(audit.ContextConfig{RepoRoot: "/repo", Index: idx})
}

func TestExprCheck_SelectsSymbols(t *testing.T) {
	idx := &stubIndex{symbols: []audit.Symbol{
		{Name: "Fetch", Kind: audit.KindFunc, File: "pkg/client.go", Line: 10, Exported: true},
		{Name: "Get", Kind: audit.KindFunc, File: "pkg/client.go", Line: 24, Exported: true, Doc: "Get retrieves one record.\n"},
		{Name: "helper", Kind: audit.KindFunc, File: "pkg/client.go", Line: 40},
		{Name: "Client", Kind: audit.KindType, File: "pkg/client.go", Line: 5, Exported: true},
	}}

	check := queryCheck(t, policy.SeverityWarning, "", map[string]interface{}{
		"expression": `symbol.exported && symbol.kind == "func" && symbol.doc == ""`,
		"message":    "exported function has no doc comment",
	})

	findings, err := check.Execute(context.Background(), indexContext(idx))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Execute() returned %d findings, want 1: %v", len(findings), findings)
	}
	f := findings[0]
	if got, want := f.Message, "Fetch: exported function has no doc comment"; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
	if f.FilePath != "pkg/client.go" || f.Line != 10 {
		t.Errorf("location = %s:%d, want pkg/client.go:10", f.FilePath, f.Line)
	}
	if f.CheckID != "query" {
		t.Errorf("CheckID = %q, want %q", f.CheckID, "query")
	}
	if f.RuleID != "semantic.query" {
		t.Errorf("RuleID = %q, want %q", f.RuleID, "semantic.query")
	}
	if f.Severity != policy.SeverityWarning {
		t.Errorf("Severity = %v, want %v", f.Severity, policy.SeverityWarning)
	}
}

func TestExprCheck_ScopeRestrictsFiles(t *testing.T) {
	idx := &stubIndex{symbols: []audit.Symbol{
		{Name: "Inside", Kind: audit.KindFunc, File: "internal/core/run.go", Line: 3, Exported: true},
		{Name: "Outside", Kind: audit.KindFunc, File: "pkg/api/api.go", Line: 8, Exported: true},
	}}

	check := queryCheck(t, policy.SeverityWarning, "internal/**", map[string]interface{}{
		"expression": "symbol.exported",
	})

	findings, err := check.Execute(context.Background(), indexContext(idx))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Execute() returned %d findings, want 1: %v", len(findings), findings)
	}
	if findings[0].FilePath != "internal/core/run.go" {
		t.Errorf("FilePath = %q, want the in-scope file", findings[0].FilePath)
	}
}

func TestExprCheck_DefaultMessage(t *testing.T) {
	idx := &stubIndex{symbols: []audit.Symbol{
		{Name: "Fetch", Kind: audit.KindFunc, File: "pkg/client.go", Line: 10, Exported: true},
	}}

	check := queryCheck(t, policy.SeverityWarning, "", map[string]interface{}{
		"expression": "symbol.exported",
	})

	findings, err := check.Execute(context.Background(), indexContext(idx))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Execute() returned %d findings, want 1", len(findings))
	}
	if got, want := findings[0].Message, "Fetch: "+defaultMessage; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
}

func TestExprCheck_MissingIndex(t *testing.T) {
	check := queryCheck(t, policy.SeverityWarning, "", map[string]interface{}{
		"expression": "symbol.exported",
	})

	_, err := check.Execute(context.Background(), indexContext(nil))
	if err == nil {
		t.Fatal("Execute() error = nil, want missing index error")
	}
	if !strings.Contains(err.Error(), "no symbol index") {
		t.Errorf("Execute() error = %v, want mention of the missing index", err)
	}
}

func TestExprCheck_IndexLoadError(t *testing.T) {
	loadErr := errors.New("index: parse failed")
	check := queryCheck(t, policy.SeverityWarning, "", map[string]interface{}{
		"expression": "symbol.exported",
	})

	_, err := check.Execute(context.Background(), indexContext(&stubIndex{loadErr: loadErr}))
	if !errors.Is(err, loadErr) {
		t.Errorf("Execute() error = %v, want wrapped load error", err)
	}
}

func TestExprCheck_EvaluationError(t *testing.T) {
	idx := &stubIndex{symbols: []audit.Symbol{
		{Name: "Fetch", Kind: audit.KindFunc, File: "pkg/client.go", Line: 10, Exported: true},
	}}

	// "package" is not a key the symbol map carries, so evaluation fails
	// at runtime even though the expression compiles.
	check := queryCheck(t, policy.SeverityWarning, "", map[string]interface{}{
		"expression": `symbol.package == "main"`,
	})

	findings, err := check.Execute(context.Background(), indexContext(idx))
	if err == nil {
		t.Fatal("Execute() error = nil, want evaluation error")
	}
	if len(findings) != 0 {
		t.Errorf("Execute() findings = %v, want none on evaluation error", findings)
	}
}
