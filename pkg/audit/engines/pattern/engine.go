package pattern

import (
	"fmt"

	"wardenhq/warden/pkg/audit"
)

// EngineID identifies this engine in the registry allow-list.
const EngineID = "pattern"

// Rule identifiers enforced by this engine.
const (
	RuleHeaderPath        = "pattern.header_path"
	RuleFileNaming        = "pattern.file_naming"
	RuleLogicConservation = "pattern.logic_conservation"
)

// Engine groups the text-shape checks.
type Engine struct {
	checks []audit.Check
}

// New constructs the engine. The naming check compiles its pattern here,
// so an invalid expression fails construction and surfaces through
// Registry.Get.
func New(deps audit.Deps) (audit.Engine, error) {
	header, err := newHeaderPathCheck(deps)
	if err != nil {
		return nil, fmt.Errorf("header_path: %w", err)
	}
	naming, err := newFileNamingCheck(deps)
	if err != nil {
		return nil, fmt.Errorf("file_naming: %w", err)
	}
	conservation, err := newLogicConservationCheck(deps)
	if err != nil {
		return nil, fmt.Errorf("logic_conservation: %w", err)
	}

	return &Engine{checks: []audit.Check{header, naming, conservation}}, nil
}

// ID implements audit.Engine.
func (e *Engine) ID() string { return EngineID }

// Checks implements audit.Engine.
func (e *Engine) Checks() []audit.Check { return e.checks }
