package policy

import (
	"encoding/json"
	"testing"
)

func TestSeverity_Ordering(t *testing.T) {
	if !(SeveritySuccess < SeverityInfo && SeverityInfo < SeverityWarning && SeverityWarning < SeverityError) {
		t.Fatal("severity order must be success < info < warning < error")
	}
}

func TestSeverity_Blocking(t *testing.T) {
	tests := []struct {
		severity Severity
		want     bool
	}{
		{SeveritySuccess, false},
		{SeverityInfo, false},
		{SeverityWarning, false},
		{SeverityError, true},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			if got := tt.severity.Blocking(); got != tt.want {
				t.Errorf("Blocking() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Severity
		wantErr bool
	}{
		{"lowercase error", "error", SeverityError, false},
		{"uppercase", "WARNING", SeverityWarning, false},
		{"warn alias", "warn", SeverityWarning, false},
		{"whitespace", "  info ", SeverityInfo, false},
		{"success", "success", SeveritySuccess, false},
		{"unknown", "critical", SeveritySuccess, true},
		{"empty", "", SeveritySuccess, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSeverity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSeverity(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSeverity_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(SeverityWarning)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"warning"` {
		t.Errorf("Marshal() = %s, want %q", data, `"warning"`)
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"error"`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s != SeverityError {
		t.Errorf("Unmarshal() = %v, want %v", s, SeverityError)
	}
}

func TestMatchScope(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"empty pattern matches all", "", "a/b/c.go", true},
		{"double star alone", "**", "deep/nested/file.go", true},
		{"exact file", "main.go", "main.go", true},
		{"exact file mismatch", "main.go", "other.go", false},
		{"star is single segment", "*.go", "pkg/main.go", false},
		{"star matches root file", "*.go", "main.go", true},
		{"double star prefix", "**/*.go", "a/b/c.go", true},
		{"double star matches zero segments", "**/*.go", "c.go", true},
		{"anchored subtree", "internal/**/*.go", "internal/core/run.go", true},
		{"anchored subtree direct child", "internal/**/*.go", "internal/run.go", true},
		{"anchored subtree mismatch", "internal/**/*.go", "pkg/core/run.go", false},
		{"interior double star", "src/**/handlers/*.go", "src/a/b/handlers/h.go", true},
		{"extension mismatch", "**/*.go", "a/b/c.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchScope(tt.pattern, tt.path); got != tt.want {
				t.Errorf("MatchScope(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestValidateScope(t *testing.T) {
	if err := ValidateScope("internal/**/*.go"); err != nil {
		t.Errorf("ValidateScope() error = %v, want nil", err)
	}
	if err := ValidateScope("src/[bad"); err == nil {
		t.Error("ValidateScope() error = nil, want bad pattern error")
	}
}

func TestRuleSpec_DecodeParams(t *testing.T) {
	rule := &RuleSpec{
		ID: "pattern.logic_conservation",
		Params: map[string]interface{}{
			"min_ratio": 0.65,
			"ignored":   "extra keys are fine",
		},
	}

	var params struct {
		MinRatio float64 `yaml:"min_ratio"`
	}
	if err := rule.DecodeParams(&params); err != nil {
		t.Fatalf("DecodeParams() error = %v", err)
	}
	if params.MinRatio != 0.65 {
		t.Errorf("MinRatio = %v, want 0.65", params.MinRatio)
	}
}

func TestRuleSpec_DecodeParams_TypeMismatch(t *testing.T) {
	rule := &RuleSpec{
		ID: "workflow.vet",
		Params: map[string]interface{}{
			"timeout_seconds": "not a number",
		},
	}

	var params struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	}
	if err := rule.DecodeParams(&params); err == nil {
		t.Error("DecodeParams() error = nil, want type mismatch error")
	}
}

func TestRuleSpec_AppliesTo(t *testing.T) {
	rule := &RuleSpec{ID: "pattern.header_path", Scope: "internal/**/*.go"}

	if !rule.AppliesTo("internal/core/run.go") {
		t.Error("AppliesTo(internal/core/run.go) = false, want true")
	}
	if rule.AppliesTo("cmd/main.go") {
		t.Error("AppliesTo(cmd/main.go) = true, want false")
	}
}
