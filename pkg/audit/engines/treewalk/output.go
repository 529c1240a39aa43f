package treewalk

import (
	"context"
	"errors"
	"fmt"
	"go/ast"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// bannedOutputParams configure which call targets count as banned
// output primitives.
type bannedOutputParams struct {
	Functions []string `yaml:"functions"`
}

// defaultBannedOutput covers the stdout primitives autonomous tasks
// reach for when they bypass structured logging.
var defaultBannedOutput = []string{"fmt.Print", "fmt.Println", "fmt.Printf", "print", "println"}

// bannedOutputCheck flags calls to the configured output primitives.
type bannedOutputCheck struct {
	audit.Binding
	cache  *astCache
	banned map[string]bool
}

func newBannedOutputCheck(deps audit.Deps, cache *astCache) (*bannedOutputCheck, error) {
	params := bannedOutputParams{Functions: defaultBannedOutput}
	if err := audit.DecodeRuleParams(deps, RuleBannedOutput, &params); err != nil {
		return nil, err
	}

	banned := make(map[string]bool, len(params.Functions))
	for _, fn := range params.Functions {
		banned[fn] = true
	}
	return &bannedOutputCheck{
		Binding: audit.Bind(deps, RuleBannedOutput, policy.SeverityError),
		cache:   cache,
		banned:  banned,
	}, nil
}

// ID implements audit.Check.
func (c *bannedOutputCheck) ID() string { return "banned_output" }

// RuleIDs implements audit.Check.
func (c *bannedOutputCheck) RuleIDs() []string { return []string{RuleBannedOutput} }

// Execute implements audit.Check.
func (c *bannedOutputCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
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
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			target, ok := callTarget(call)
			if !ok || !c.banned[target] || !importedTarget(target, imports) {
				return true
			}
			findings = append(findings, c.Finding(c.ID(),
				fmt.Sprintf("call to banned output primitive %s", target),
				sf.Path, fset.Position(call.Pos()).Line))
			return true
		})
	}
	return findings, nil
}
