package treewalk

import (
	"errors"
	"io/fs"
	"sort"
	"testing"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// mapReader serves file content from memory.
type mapReader map[string]string

func (m mapReader) ReadFile(relPath string) ([]byte, error) {
	src, ok := m[relPath]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(src), nil
}

// testContext builds a synthetic audit context over in-memory files.
func testContext(files map[string]string) *audit.Context {
	var sources []audit.SourceFile
	for path := range files {
		sources = append(sources, audit.SourceFile{Path: path})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })

	return audit.NewContext(audit.ContextConfig{
		RepoRoot: "/repo",
		Files:    sources,
		Reader:   mapReader(files),
	})
}

// declare builds deps with a single declared rule.
func declare(t *testing.T, id string, severity policy.Severity, params map[string]interface{}) audit.Deps {
	t.Helper()
	store := policy.NewStore()
	p := &policy.Policy{
		ID:         "test-policy",
		SourceFile: "test.yaml",
		Rules: []*policy.RuleSpec{
			{ID: id, Severity: severity, Params: params, SourcePolicy: "test-policy"},
		},
	}
	if err := store.Register(p); err != nil {
		t.Fatal(err)
	}
	return audit.Deps{Policies: store}
}

func TestNew_ClaimsAllRules(t *testing.T) {
	eng, err := New(audit.Deps{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if eng.ID() != EngineID {
		t.Errorf("ID() = %q, want %q", eng.ID(), EngineID)
	}

	claimed := make(map[string]bool)
	for _, check := range eng.Checks() {
		if len(check.RuleIDs()) == 0 {
			t.Errorf("check %s declares no rules", check.ID())
		}
		for _, id := range check.RuleIDs() {
			if claimed[id] {
				t.Errorf("rule %s claimed twice", id)
			}
			claimed[id] = true
		}
	}

	want := []string{
		RuleBannedOutput, RuleGuardedExec, RuleSymbolAnchor,
		RuleLegacyImport, RuleLegacyCall,
		RuleNoExit, RuleNoPanic, RuleNoInit,
	}
	for _, id := range want {
		if !claimed[id] {
			t.Errorf("rule %s not claimed by any check", id)
		}
	}
	if len(claimed) != len(want) {
		t.Errorf("claimed %d rules, want %d", len(claimed), len(want))
	}
}

func TestNew_MalformedParams(t *testing.T) {
	deps := declare(t, RuleBannedOutput, policy.SeverityError, map[string]interface{}{
		"functions": "not-a-list",
	})

	if _, err := New(deps); err == nil {
		t.Fatal("New() error = nil, want parameter decode failure")
	}
}

func TestASTCache_ReusesTrees(t *testing.T) {
	cache := newASTCache()
	actx := testContext(map[string]string{
		"pkg/a.go": "package a\n\nfunc A() {}\n",
	})

	_, first, err := cache.parse(actx, "pkg/a.go")
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	_, second, err := cache.parse(actx, "pkg/a.go")
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if first != second {
		t.Error("unchanged file was reparsed")
	}
	if cache.size() != 1 {
		t.Errorf("cache size = %d, want 1", cache.size())
	}
}

func TestASTCache_InvalidatesOnChange(t *testing.T) {
	cache := newASTCache()
	files := map[string]string{"pkg/a.go": "package a\n\nfunc A() {}\n"}
	actx := testContext(files)

	_, first, err := cache.parse(actx, "pkg/a.go")
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	files["pkg/a.go"] = "package a\n\nfunc A() {}\n\nfunc B() {}\n"
	_, second, err := cache.parse(actx, "pkg/a.go")
	if err != nil {
		t.Fatalf("parse() after change error = %v", err)
	}
	if first == second {
		t.Error("changed file served from cache")
	}
}

func TestASTCache_SyntaxError(t *testing.T) {
	cache := newASTCache()
	actx := testContext(map[string]string{
		"pkg/broken.go": "package a\n\nfunc {\n",
	})

	_, _, err := cache.parse(actx, "pkg/broken.go")
	if !errors.Is(err, errSyntax) {
		t.Errorf("parse() error = %v, want errSyntax", err)
	}
}

func TestMatchNamespace(t *testing.T) {
	deny := []string{"oldcorp/monolith", "wardenhq/warden/internal/legacy"}

	tests := []struct {
		path string
		want bool
	}{
		{"oldcorp/monolith", true},
		{"oldcorp/monolith/db", true},
		{"oldcorp/monolith2", false},
		{"oldcorp", false},
		{"wardenhq/warden/internal/legacy/v1", true},
		{"wardenhq/warden/internal", false},
	}
	for _, tt := range tests {
		if _, got := matchNamespace(tt.path, deny); got != tt.want {
			t.Errorf("matchNamespace(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
