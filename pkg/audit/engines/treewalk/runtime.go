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

type noExitParams struct {
	Functions []string `yaml:"functions"`
	AllowMain bool     `yaml:"allow_main"`
}

var defaultExitFunctions = []string{"os.Exit", "log.Fatal", "log.Fatalf", "log.Fatalln"}

// noExitCheck flags process-terminating calls. Package main is exempt
// by default; terminating the process is the entry point's job.
type noExitCheck struct {
	audit.Binding
	cache     *astCache
	exits     map[string]bool
	allowMain bool
}

func newNoExitCheck(deps audit.Deps, cache *astCache) (*noExitCheck, error) {
	params := noExitParams{Functions: defaultExitFunctions, AllowMain: true}
	if err := audit.DecodeRuleParams(deps, RuleNoExit, &params); err != nil {
		return nil, err
	}

	exits := make(map[string]bool, len(params.Functions))
	for _, fn := range params.Functions {
		exits[fn] = true
	}
	return &noExitCheck{
		Binding:   audit.Bind(deps, RuleNoExit, policy.SeverityError),
		cache:     cache,
		exits:     exits,
		allowMain: params.AllowMain,
	}, nil
}

func (c *noExitCheck) ID() string        { return "no_exit" }
func (c *noExitCheck) RuleIDs() []string { return []string{RuleNoExit} }

func (c *noExitCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var findings []audit.Finding
	for _, sf := range actx.FilesMatching(c.Scope) {
		fset, file, err := c.cache.parse(actx, sf.Path)
		if err != nil {
			if errors.Is(err, errSyntax) {
				continue
			}
			return nil, err
		}
		if c.allowMain && file.Name.Name == "main" {
			continue
		}

		imports := importTable(file)
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			target, ok := callTarget(call)
			if !ok || !c.exits[target] || !importedTarget(target, imports) {
				return true
			}
			findings = append(findings, c.Finding(c.ID(),
				fmt.Sprintf("call to %s terminates the process outside package main", target),
				sf.Path, fset.Position(call.Pos()).Line))
			return true
		})
	}
	return findings, nil
}

type noPanicParams struct {
	AllowTests bool `yaml:"allow_tests"`
}

// noPanicCheck flags panic calls. Test files are exempt by default.
type noPanicCheck struct {
	audit.Binding
	cache      *astCache
	allowTests bool
}

func newNoPanicCheck(deps audit.Deps, cache *astCache) (*noPanicCheck, error) {
	params := noPanicParams{AllowTests: true}
	if err := audit.DecodeRuleParams(deps, RuleNoPanic, &params); err != nil {
		return nil, err
	}
	return &noPanicCheck{
		Binding:    audit.Bind(deps, RuleNoPanic, policy.SeverityWarning),
		cache:      cache,
		allowTests: params.AllowTests,
	}, nil
}

func (c *noPanicCheck) ID() string        { return "no_panic" }
func (c *noPanicCheck) RuleIDs() []string { return []string{RuleNoPanic} }

func (c *noPanicCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var findings []audit.Finding
	for _, sf := range actx.FilesMatching(c.Scope) {
		if c.allowTests && strings.HasSuffix(sf.Path, "_test.go") {
			continue
		}
		fset, file, err := c.cache.parse(actx, sf.Path)
		if err != nil {
			if errors.Is(err, errSyntax) {
				continue
			}
			return nil, err
		}

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			if ident, ok := call.Fun.(*ast.Ident); !ok || ident.Name != "panic" {
				return true
			}
			findings = append(findings, c.Finding(c.ID(),
				"call to panic; return an error instead",
				sf.Path, fset.Position(call.Pos()).Line))
			return true
		})
	}
	return findings, nil
}

// noInitCheck flags package init functions, which hide initialization
// order from callers.
type noInitCheck struct {
	audit.Binding
	cache *astCache
}

func newNoInitCheck(deps audit.Deps, cache *astCache) *noInitCheck {
	return &noInitCheck{
		Binding: audit.Bind(deps, RuleNoInit, policy.SeverityWarning),
		cache:   cache,
	}
}

func (c *noInitCheck) ID() string        { return "no_init" }
func (c *noInitCheck) RuleIDs() []string { return []string{RuleNoInit} }

func (c *noInitCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
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
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "init" || fn.Recv != nil {
				continue
			}
			findings = append(findings, c.Finding(c.ID(),
				"init function declared; make initialization explicit",
				sf.Path, fset.Position(fn.Name.Pos()).Line))
		}
	}
	return findings, nil
}
