package semantic

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"wardenhq/warden/pkg/audit"
)

// EngineID identifies this engine in the registry allow-list.
const EngineID = "semantic"

// RulePrefix marks the rules this engine materializes checks for. The
// remainder of the rule ID names the check, so "semantic.exported_needs_doc"
// runs as check "exported_needs_doc".
const RulePrefix = "semantic."

// Engine holds one compiled expression check per declared semantic rule.
type Engine struct {
	checks []audit.Check
}

// New builds the shared CEL environment and compiles a check for every
// declared rule under RulePrefix. Expressions that do not compile or do
// not evaluate to a boolean fail construction, which surfaces through
// Registry.Get before any audit runs.
func New(deps audit.Deps) (audit.Engine, error) {
	eng := &Engine{}
	if deps.Policies == nil {
		return eng, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("symbol", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}

	for _, rule := range deps.Policies.Rules() {
		if !strings.HasPrefix(rule.ID, RulePrefix) {
			continue
		}
		check, err := newExprCheck(deps, env, rule)
		if err != nil {
			return nil, err
		}
		eng.checks = append(eng.checks, check)
	}
	return eng, nil
}

// ID implements audit.Engine.
func (e *Engine) ID() string { return EngineID }

// Checks implements audit.Engine.
func (e *Engine) Checks() []audit.Check { return e.checks }
