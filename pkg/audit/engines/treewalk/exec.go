package treewalk

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"strings"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// guardedExecParams configure the dynamic-execution primitives that
// require a validation call on the line immediately above them.
type guardedExecParams struct {
	// Functions are the call targets that spawn processes or load code.
	Functions []string `yaml:"functions"`

	// Validators are the call targets that count as validation. A bare
	// name matches any package qualifier.
	Validators []string `yaml:"validators"`
}

var (
	defaultGuardedFunctions  = []string{"exec.Command", "exec.CommandContext", "syscall.Exec", "plugin.Open"}
	defaultGuardedValidators = []string{"ValidateCommand", "ValidateArgs"}
)

// guardedExecCheck flags dynamic-execution calls whose preceding line
// carries no validation call. The prior-line convention keeps the
// validation visibly adjacent to the thing it validates.
type guardedExecCheck struct {
	audit.Binding
	cache      *astCache
	guarded    map[string]bool
	validators []string
}

func newGuardedExecCheck(deps audit.Deps, cache *astCache) (*guardedExecCheck, error) {
	params := guardedExecParams{
		Functions:  defaultGuardedFunctions,
		Validators: defaultGuardedValidators,
	}
	if err := audit.DecodeRuleParams(deps, RuleGuardedExec, &params); err != nil {
		return nil, err
	}

	guarded := make(map[string]bool, len(params.Functions))
	for _, fn := range params.Functions {
		guarded[fn] = true
	}
	return &guardedExecCheck{
		Binding:    audit.Bind(deps, RuleGuardedExec, policy.SeverityError),
		cache:      cache,
		guarded:    guarded,
		validators: params.Validators,
	}, nil
}

// ID implements audit.Check.
func (c *guardedExecCheck) ID() string { return "guarded_exec" }

// RuleIDs implements audit.Check.
func (c *guardedExecCheck) RuleIDs() []string { return []string{RuleGuardedExec} }

// Execute implements audit.Check.
func (c *guardedExecCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var findings []audit.Finding
	for _, sf := range actx.FilesMatching(c.Scope) {
		fset, file, err := c.cache.parse(actx, sf.Path)
		if err != nil {
			if errors.Is(err, errSyntax) {
				continue
			}
			return nil, err
		}

		imports := importTable(file)

		type guardedCall struct {
			target string
			line   int
		}
		var calls []guardedCall
		validated := make(map[int]bool)

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			target, ok := callTarget(call)
			if !ok {
				return true
			}
			line := fset.Position(call.Pos()).Line
			if c.isValidator(target) {
				validated[line] = true
			}
			if c.guarded[target] && importedTarget(target, imports) {
				calls = append(calls, guardedCall{target: target, line: line})
			}
			return true
		})

		for _, gc := range calls {
			if validated[gc.line-1] {
				continue
			}
			findings = append(findings, c.Finding(c.ID(),
				fmt.Sprintf("call to %s without a validation call on the preceding line", gc.target),
				sf.Path, gc.line))
		}
	}
	return findings, nil
}

func (c *guardedExecCheck) isValidator(target string) bool {
	for _, v := range c.validators {
		if target == v || strings.HasSuffix(target, "."+v) {
			return true
		}
	}
	return false
}
