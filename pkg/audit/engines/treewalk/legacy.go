package treewalk

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"strconv"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// legacyParams configure the deny-listed namespace prefixes. A prefix
// matches an import path exactly or as a path ancestor.
type legacyParams struct {
	Namespaces []string `yaml:"namespaces"`
}

// legacyAccessCheck enforces both legacy rules: imports of retired
// namespaces and calls that reach into them through an import. One walk
// serves both rule IDs; each finding carries the rule it violates.
type legacyAccessCheck struct {
	cache      *astCache
	importRule audit.Binding
	callRule   audit.Binding
	importDeny []string
	callDeny   []string
}

func newLegacyAccessCheck(deps audit.Deps, cache *astCache) (*legacyAccessCheck, error) {
	var importParams, callParams legacyParams
	if err := audit.DecodeRuleParams(deps, RuleLegacyImport, &importParams); err != nil {
		return nil, err
	}
	if err := audit.DecodeRuleParams(deps, RuleLegacyCall, &callParams); err != nil {
		return nil, err
	}
	return &legacyAccessCheck{
		cache:      cache,
		importRule: audit.Bind(deps, RuleLegacyImport, policy.SeverityError),
		callRule:   audit.Bind(deps, RuleLegacyCall, policy.SeverityError),
		importDeny: importParams.Namespaces,
		callDeny:   callParams.Namespaces,
	}, nil
}

// ID implements audit.Check.
func (c *legacyAccessCheck) ID() string { return "legacy_access" }

// RuleIDs implements audit.Check.
func (c *legacyAccessCheck) RuleIDs() []string {
	return []string{RuleLegacyImport, RuleLegacyCall}
}

// Execute implements audit.Check.
func (c *legacyAccessCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var findings []audit.Finding

	if len(c.importDeny) > 0 {
		for _, sf := range actx.FilesMatching(c.importRule.Scope) {
			fset, file, err := c.cache.parse(actx, sf.Path)
			if err != nil {
				if errors.Is(err, errSyntax) {
					continue
				}
				return nil, err
			}
			for _, imp := range file.Imports {
				path, err := strconv.Unquote(imp.Path.Value)
				if err != nil {
					continue
				}
				if ns, ok := matchNamespace(path, c.importDeny); ok {
					findings = append(findings, c.importRule.Finding(c.ID(),
						fmt.Sprintf("import of legacy namespace %s (deny-listed under %s)", path, ns),
						sf.Path, fset.Position(imp.Pos()).Line))
				}
			}
		}
	}

	if len(c.callDeny) > 0 {
		for _, sf := range actx.FilesMatching(c.callRule.Scope) {
			fset, file, err := c.cache.parse(actx, sf.Path)
			if err != nil {
				if errors.Is(err, errSyntax) {
					continue
				}
				return nil, err
			}

			// Local names bound to deny-listed imports in this file.
			legacyNames := make(map[string]string)
			for name, path := range importTable(file) {
				if _, ok := matchNamespace(path, c.callDeny); ok {
					legacyNames[name] = path
				}
			}
			if len(legacyNames) == 0 {
				continue
			}

			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				x, ok := sel.X.(*ast.Ident)
				if !ok {
					return true
				}
				path, legacy := legacyNames[x.Name]
				if !legacy {
					return true
				}
				findings = append(findings, c.callRule.Finding(c.ID(),
					fmt.Sprintf("call to %s.%s reaches into legacy namespace %s", x.Name, sel.Sel.Name, path),
					sf.Path, fset.Position(call.Pos()).Line))
				return true
			})
		}
	}

	return findings, nil
}
