package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

const defaultMessage = "declaration matches policy expression"

type exprParams struct {
	Expression string `yaml:"expression"`
	Message    string `yaml:"message"`
}

// exprCheck evaluates one compiled CEL expression against every indexed
// symbol and reports the symbols it selects.
type exprCheck struct {
	audit.Binding

	id      string
	message string
	prg     cel.Program
}

func newExprCheck(deps audit.Deps, env *cel.Env, rule *policy.RuleSpec) (*exprCheck, error) {
	id := strings.TrimPrefix(rule.ID, RulePrefix)
	if id == "" {
		return nil, fmt.Errorf("rule %q: no check name after the %q prefix", rule.ID, RulePrefix)
	}

	var params exprParams
	if err := rule.DecodeParams(&params); err != nil {
		return nil, err
	}
	if params.Expression == "" {
		return nil, fmt.Errorf("rule %q: expression is required", rule.ID)
	}
	if params.Message == "" {
		params.Message = defaultMessage
	}

	ast, issues := env.Compile(params.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rule %q: compiling expression: %w", rule.ID, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("rule %q: expression must evaluate to bool, got %s", rule.ID, t)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("rule %q: building program: %w", rule.ID, err)
	}

	return &exprCheck{
		Binding: audit.Bind(deps, rule.ID, policy.SeverityWarning),
		id:      id,
		message: params.Message,
		prg:     prg,
	}, nil
}

// ID implements audit.Check.
func (c *exprCheck) ID() string { return c.id }

// RuleIDs implements audit.Check.
func (c *exprCheck) RuleIDs() []string { return []string{c.RuleID} }

// Execute loads the symbol index and evaluates the expression once per
// symbol within scope. Evaluation errors abort the check so the bound
// rule counts as crashed; a missing index is treated the same way since
// the rule cannot be enforced without one.
func (c *exprCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	idx := actx.Index()
	if idx == nil {
		return nil, fmt.Errorf("rule %s: no symbol index configured", c.RuleID)
	}
	if err := idx.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading symbol index: %w", err)
	}

	var findings []audit.Finding
	for _, sym := range idx.Symbols() {
		if !policy.MatchScope(c.Scope, sym.File) {
			continue
		}
		out, _, err := c.prg.Eval(map[string]interface{}{"symbol": symbolMap(sym)})
		if err != nil {
			return nil, fmt.Errorf("rule %s: evaluating %s at %s:%d: %w", c.RuleID, sym.Name, sym.File, sym.Line, err)
		}
		selected, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("rule %s: expression returned %T, want bool", c.RuleID, out.Value())
		}
		if selected {
			msg := fmt.Sprintf("%s: %s", sym.Name, c.message)
			findings = append(findings, c.Finding(c.id, msg, sym.File, sym.Line))
		}
	}
	return findings, nil
}

// symbolMap converts one symbol into the map shape the expression sees.
func symbolMap(sym audit.Symbol) map[string]interface{} {
	return map[string]interface{}{
		"name":     sym.Name,
		"kind":     string(sym.Kind),
		"file":     sym.File,
		"line":     sym.Line,
		"exported": sym.Exported,
		"doc":      sym.Doc,
		"receiver": sym.Receiver,
	}
}
