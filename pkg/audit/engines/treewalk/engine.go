package treewalk

import (
	"fmt"

	"wardenhq/warden/pkg/audit"
)

// EngineID identifies this engine in the registry allow-list.
const EngineID = "tree_walk"

// Rule identifiers enforced by this engine.
const (
	RuleBannedOutput = "tree_walk.banned_output"
	RuleGuardedExec  = "tree_walk.guarded_exec"
	RuleSymbolAnchor = "tree_walk.symbol_anchor"
	RuleLegacyImport = "tree_walk.legacy_import"
	RuleLegacyCall   = "tree_walk.legacy_call"
	RuleNoExit       = "tree_walk.no_exit"
	RuleNoPanic      = "tree_walk.no_panic"
	RuleNoInit       = "tree_walk.no_init"
)

// Engine groups the syntax-tree checks behind a shared parse cache.
type Engine struct {
	checks []audit.Check
}

// New constructs the engine with every check bound to its declared rule
// parameters. Malformed parameters fail construction, which surfaces
// through Registry.Get before any audit runs.
func New(deps audit.Deps) (audit.Engine, error) {
	cache := newASTCache()

	banned, err := newBannedOutputCheck(deps, cache)
	if err != nil {
		return nil, fmt.Errorf("banned_output: %w", err)
	}
	guarded, err := newGuardedExecCheck(deps, cache)
	if err != nil {
		return nil, fmt.Errorf("guarded_exec: %w", err)
	}
	anchor, err := newSymbolAnchorCheck(deps, cache)
	if err != nil {
		return nil, fmt.Errorf("symbol_anchor: %w", err)
	}
	legacy, err := newLegacyAccessCheck(deps, cache)
	if err != nil {
		return nil, fmt.Errorf("legacy_access: %w", err)
	}
	noExit, err := newNoExitCheck(deps, cache)
	if err != nil {
		return nil, fmt.Errorf("no_exit: %w", err)
	}
	noPanic, err := newNoPanicCheck(deps, cache)
	if err != nil {
		return nil, fmt.Errorf("no_panic: %w", err)
	}

	return &Engine{
		checks: []audit.Check{
			banned,
			guarded,
			anchor,
			legacy,
			noExit,
			noPanic,
			newNoInitCheck(deps, cache),
		},
	}, nil
}

// ID implements audit.Engine.
func (e *Engine) ID() string { return EngineID }

// Checks implements audit.Engine.
func (e *Engine) Checks() []audit.Check { return e.checks }
