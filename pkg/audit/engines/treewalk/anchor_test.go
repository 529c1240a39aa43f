package treewalk

import (
	"context"
	"strings"
	"testing"

	"wardenhq/warden/pkg/policy"
)

func TestSymbolAnchorCheck(t *testing.T) {
	deps := declare(t, RuleSymbolAnchor, policy.SeverityWarning, nil)
	check, err := newSymbolAnchorCheck(deps, newASTCache())
	if err != nil {
		t.Fatalf("newSymbolAnchorCheck() error = %v", err)
	}

	actx := testContext(map[string]string{
		"pkg/api.go": `package api

// Client talks to the governance service.
//
// warden:anchor api-client
type Client struct{}

// Orphan has documentation but no anchor.
type Orphan struct{}

type Bare struct{}

// Fetch retrieves a record.
// warden:anchor api-client-fetch
func (c *Client) Fetch(id string) error { return nil }

// Drop removes a record.
func (c *Client) Drop(id string) error { return nil }

func internalHelper() {}
`,
	})

	findings, err := check.Execute(context.Background(), actx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// Orphan, Bare, and Drop lack anchors; Client and Fetch carry them;
	// internalHelper is unexported.
	want := map[string]bool{"Orphan": true, "Bare": true, "Drop": true}
	if len(findings) != len(want) {
		t.Fatalf("Execute() returned %d findings, want %d: %v", len(findings), len(want), findings)
	}
	for _, f := range findings {
		matched := false
		for name := range want {
			if strings.Contains(f.Message, name) {
				matched = true
				delete(want, name)
				break
			}
		}
		if !matched {
			t.Errorf("unexpected finding: %s", f.Message)
		}
	}
	for name := range want {
		t.Errorf("no finding for unanchored symbol %s", name)
	}
}

func TestSymbolAnchorCheck_CustomDirective(t *testing.T) {
	deps := declare(t, RuleSymbolAnchor, policy.SeverityWarning, map[string]interface{}{
		"directive": "identity:",
	})
	check, err := newSymbolAnchorCheck(deps, newASTCache())
	if err != nil {
		t.Fatalf("newSymbolAnchorCheck() error = %v", err)
	}

	actx := testContext(map[string]string{
		"pkg/api.go": `package api

// Tracked does something.
// identity: tracked-1
func Tracked() {}

// Untracked carries the default directive, which no longer counts.
// warden:anchor untracked-1
func Untracked() {}
`,
	})

	findings, err := check.Execute(context.Background(), actx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Execute() returned %d findings, want 1: %v", len(findings), findings)
	}
	if !strings.Contains(findings[0].Message, "Untracked") {
		t.Errorf("finding = %q, want Untracked flagged", findings[0].Message)
	}
}
