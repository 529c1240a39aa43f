package workflow

import (
	"strings"

	"wardenhq/warden/pkg/audit"
)

// EngineID identifies this engine in the registry allow-list.
const EngineID = "workflow"

// RulePrefix marks the rules this engine materializes checks for. The
// remainder of the rule ID names the check, so "workflow.vet" runs as
// check "vet".
const RulePrefix = "workflow."

// Engine holds one command check per declared workflow rule.
type Engine struct {
	checks []audit.Check
}

// New builds a check for every declared rule under RulePrefix. A rule
// with no command, a non-positive timeout, or an absolute working
// directory fails construction, which surfaces through Registry.Get
// before any audit runs. With no workflow rules declared the engine is
// empty and dispatches nothing.
func New(deps audit.Deps) (audit.Engine, error) {
	eng := &Engine{}
	if deps.Policies == nil {
		return eng, nil
	}
	for _, rule := range deps.Policies.Rules() {
		if !strings.HasPrefix(rule.ID, RulePrefix) {
			continue
		}
		check, err := newCommandCheck(deps, rule)
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
