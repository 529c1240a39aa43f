package audit

import (
	"context"
	"fmt"

	"wardenhq/warden/pkg/policy"
)

// Check is one executable enforcement unit. A check declares the rule IDs
// it enforces and produces findings when executed; it never mutates the
// audited tree or any shared state.
//
// RuleIDs must be non-empty for the check to ever be dispatched: the
// Auditor selects checks by resolving declared rules, so a check that
// claims nothing is unreachable. Registration logs such checks and moves
// on rather than failing, since an inert check is a gap, not a hazard.
type Check interface {
	// ID is the stable check identifier, unique within its engine
	ID() string

	// RuleIDs lists the policy rule IDs this check enforces
	RuleIDs() []string

	// Execute runs the check against the audit context and returns its
	// findings. Execute must be side-effect-free and safe to call
	// concurrently with other checks sharing the same context.
	Execute(ctx context.Context, actx *Context) ([]Finding, error)
}

// Engine is a family of checks sharing one execution strategy, keyed by a
// stable identifier such as "tree_walk" or "workflow".
type Engine interface {
	// ID is the stable engine identifier
	ID() string

	// Checks returns the engine's checks. The set is fixed at
	// construction time.
	Checks() []Check
}

// Binding carries the policy-declared severity and scope for one rule a
// check enforces. Undeclared rules keep their built-in defaults; they are
// never selected for dispatch, so the defaults only matter for targeted
// tests.
type Binding struct {
	// RuleID is the bound rule identifier
	RuleID string

	// Severity is the declared severity, or the check's default
	Severity policy.Severity

	// Scope is the declared scope glob; empty matches every file
	Scope string
}

// Bind resolves the declared severity and scope for ruleID, keeping the
// given default severity when the rule is not declared.
func Bind(deps Deps, ruleID string, def policy.Severity) Binding {
	b := Binding{RuleID: ruleID, Severity: def}
	if spec, ok := deps.Rule(ruleID); ok {
		b.Severity = spec.Severity
		b.Scope = spec.Scope
	}
	return b
}

// Finding assembles one finding for the bound rule.
func (b Binding) Finding(checkID, message, file string, line int) Finding {
	return Finding{
		CheckID:  checkID,
		RuleID:   b.RuleID,
		Severity: b.Severity,
		Message:  message,
		FilePath: file,
		Line:     line,
	}
}

// DecodeRuleParams overlays the declared parameters of ruleID onto out,
// which arrives pre-populated with the check's defaults. Undeclared
// rules leave out untouched.
func DecodeRuleParams(deps Deps, ruleID string, out interface{}) error {
	spec, ok := deps.Rule(ruleID)
	if !ok {
		return nil
	}
	if err := spec.DecodeParams(out); err != nil {
		return fmt.Errorf("rule %s: %w", ruleID, err)
	}
	return nil
}
