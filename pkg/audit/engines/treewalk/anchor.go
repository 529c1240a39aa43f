package treewalk

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// anchorParams configure the identity anchor directive expected in the
// doc comment of every exported symbol.
type anchorParams struct {
	Directive string `yaml:"directive"`
}

// defaultAnchorDirective is the marker autonomous tooling uses to track
// a symbol across renames and moves.
const defaultAnchorDirective = "warden:anchor"

// symbolAnchorCheck flags exported functions, methods, and types whose
// doc comment lacks the anchor directive. Constants and variables are
// not anchored; they carry no independent identity worth tracking.
type symbolAnchorCheck struct {
	audit.Binding
	cache     *astCache
	directive string
}

func newSymbolAnchorCheck(deps audit.Deps, cache *astCache) (*symbolAnchorCheck, error) {
	params := anchorParams{Directive: defaultAnchorDirective}
	if err := audit.DecodeRuleParams(deps, RuleSymbolAnchor, &params); err != nil {
		return nil, err
	}
	return &symbolAnchorCheck{
		Binding:   audit.Bind(deps, RuleSymbolAnchor, policy.SeverityWarning),
		cache:     cache,
		directive: params.Directive,
	}, nil
}

// ID implements audit.Check.
func (c *symbolAnchorCheck) ID() string { return "symbol_anchor" }

// RuleIDs implements audit.Check.
func (c *symbolAnchorCheck) RuleIDs() []string { return []string{RuleSymbolAnchor} }

// Execute implements audit.Check.
func (c *symbolAnchorCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var findings []audit.Finding
	for _, sf := range actx.FilesMatching(c.Scope) {
		fset, file, err := c.cache.parse(actx, sf.Path)
		if err != nil {
			if errors.Is(err, errSyntax) {
				continue
			}
			return nil, err
		}

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if !d.Name.IsExported() {
					continue
				}
				if c.anchored(d.Doc) {
					continue
				}
				findings = append(findings, c.missing(sf.Path, fset, d.Name))

			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok || !ts.Name.IsExported() {
						continue
					}
					doc := ts.Doc
					if doc == nil && len(d.Specs) == 1 {
						doc = d.Doc
					}
					if c.anchored(doc) {
						continue
					}
					findings = append(findings, c.missing(sf.Path, fset, ts.Name))
				}
			}
		}
	}
	return findings, nil
}

func (c *symbolAnchorCheck) anchored(doc *ast.CommentGroup) bool {
	return doc != nil && strings.Contains(doc.Text(), c.directive)
}

func (c *symbolAnchorCheck) missing(path string, fset *token.FileSet, name *ast.Ident) audit.Finding {
	return c.Finding(c.ID(),
		fmt.Sprintf("exported symbol %s lacks identity anchor %q", name.Name, c.directive),
		path, fset.Position(name.Pos()).Line)
}
