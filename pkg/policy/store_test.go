package policy

import (
	"errors"
	"testing"
)

func testPolicy(id string, ruleIDs ...string) *Policy {
	p := &Policy{ID: id, Version: "1.0.0", SourceFile: id + ".yaml"}
	for _, rid := range ruleIDs {
		p.Rules = append(p.Rules, &RuleSpec{
			ID:           rid,
			Severity:     SeverityError,
			SourcePolicy: id,
			Mandatory:    true,
		})
	}
	return p
}

func TestStore_Register(t *testing.T) {
	store := NewStore()

	if err := store.Register(testPolicy("base", "tree_walk.no_exit")); err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}

	if store.PolicyCount() != 1 {
		t.Errorf("PolicyCount() = %d, want 1", store.PolicyCount())
	}
	if store.RuleCount() != 1 {
		t.Errorf("RuleCount() = %d, want 1", store.RuleCount())
	}

	rule, ok := store.Rule("tree_walk.no_exit")
	if !ok {
		t.Fatal("Rule(tree_walk.no_exit) not found")
	}
	if rule.SourcePolicy != "base" {
		t.Errorf("rule source policy = %q, want %q", rule.SourcePolicy, "base")
	}
}

func TestStore_Register_NilPolicy(t *testing.T) {
	store := NewStore()

	err := store.Register(nil)
	if err == nil {
		t.Fatal("Register(nil) error = nil, want error")
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Register(nil) error type = %T, want *StoreError", err)
	}
}

func TestStore_Register_DuplicatePolicy(t *testing.T) {
	store := NewStore()

	if err := store.Register(testPolicy("base", "a.one")); err != nil {
		t.Fatal(err)
	}
	if err := store.Register(testPolicy("base", "a.two")); err == nil {
		t.Fatal("Register() error = nil, want duplicate policy error")
	}
}

func TestStore_Register_DuplicateRuleAcrossPolicies(t *testing.T) {
	store := NewStore()

	if err := store.Register(testPolicy("first", "tree_walk.no_exit")); err != nil {
		t.Fatal(err)
	}

	err := store.Register(testPolicy("second", "tree_walk.no_exit"))
	if err == nil {
		t.Fatal("Register() error = nil, want DuplicateRuleError")
	}

	var dupErr *DuplicateRuleError
	if !errors.As(err, &dupErr) {
		t.Fatalf("Register() error type = %T, want *DuplicateRuleError", err)
	}
	if dupErr.FirstPolicy != "first" || dupErr.SecondPolicy != "second" {
		t.Errorf("DuplicateRuleError policies = %q/%q, want first/second",
			dupErr.FirstPolicy, dupErr.SecondPolicy)
	}

	// Failed registration must not leave partial state behind.
	if store.PolicyCount() != 1 {
		t.Errorf("PolicyCount() after failed register = %d, want 1", store.PolicyCount())
	}
}

func TestStore_Replace_Atomic(t *testing.T) {
	store := NewStore()
	if err := store.Register(testPolicy("old", "old.rule")); err != nil {
		t.Fatal(err)
	}
	oldVersion := store.Version()

	// A colliding set must leave the previous set active.
	bad := []*Policy{
		testPolicy("a", "shared.rule"),
		testPolicy("b", "shared.rule"),
	}
	if err := store.Replace(bad); err == nil {
		t.Fatal("Replace() error = nil, want DuplicateRuleError")
	}

	if _, ok := store.Rule("old.rule"); !ok {
		t.Error("previous rule set was lost after failed Replace()")
	}
	if store.Version() != oldVersion {
		t.Error("version changed after failed Replace()")
	}

	// A valid set swaps everything.
	good := []*Policy{
		testPolicy("a", "a.rule"),
		testPolicy("b", "b.rule"),
	}
	if err := store.Replace(good); err != nil {
		t.Fatalf("Replace() error = %v, want nil", err)
	}

	if _, ok := store.Rule("old.rule"); ok {
		t.Error("old rule still present after Replace()")
	}
	if store.RuleCount() != 2 {
		t.Errorf("RuleCount() = %d, want 2", store.RuleCount())
	}
	if store.Version() == oldVersion {
		t.Error("version did not change after successful Replace()")
	}
}

func TestStore_Rules_Sorted(t *testing.T) {
	store := NewStore()
	if err := store.Register(testPolicy("p", "z.last", "a.first", "m.middle")); err != nil {
		t.Fatal(err)
	}

	ids := store.RuleIDs()
	want := []string{"a.first", "m.middle", "z.last"}
	if len(ids) != len(want) {
		t.Fatalf("RuleIDs() len = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("RuleIDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestStore_Stats(t *testing.T) {
	store := NewStore()

	p := &Policy{ID: "mixed", SourceFile: "mixed.yaml"}
	p.Rules = []*RuleSpec{
		{ID: "a.error", Severity: SeverityError, SourcePolicy: "mixed", Mandatory: true},
		{ID: "a.warn", Severity: SeverityWarning, SourcePolicy: "mixed", Mandatory: false},
		{ID: "a.info", Severity: SeverityInfo, SourcePolicy: "mixed", Mandatory: true},
	}
	if err := store.Register(p); err != nil {
		t.Fatal(err)
	}

	stats := store.Stats()
	if stats.RuleCount != 3 {
		t.Errorf("RuleCount = %d, want 3", stats.RuleCount)
	}
	if stats.MandatoryRules != 2 {
		t.Errorf("MandatoryRules = %d, want 2", stats.MandatoryRules)
	}
	if stats.BlockingRules != 1 {
		t.Errorf("BlockingRules = %d, want 1", stats.BlockingRules)
	}
}
