// Package engines wires the built-in check engines into an audit
// registry. Callers that want the full set use NewRegistry; callers
// composing their own mix register individual engine packages directly.
package engines

import (
	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/audit/engines/pattern"
	"wardenhq/warden/pkg/audit/engines/semantic"
	"wardenhq/warden/pkg/audit/engines/treewalk"
	"wardenhq/warden/pkg/audit/engines/workflow"
)

// Builtins returns the constructor of every built-in engine, keyed by
// engine ID. The map is rebuilt on each call so callers may modify it.
func Builtins() map[string]audit.EngineConstructor {
	return map[string]audit.EngineConstructor{
		treewalk.EngineID: treewalk.New,
		pattern.EngineID:  pattern.New,
		workflow.EngineID: workflow.New,
		semantic.EngineID: semantic.New,
	}
}

// Register adds every built-in engine to an existing registry.
func Register(reg *audit.Registry) error {
	for id, ctor := range Builtins() {
		if err := reg.Register(id, ctor); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry builds a registry with every built-in engine registered.
func NewRegistry(deps audit.Deps) *audit.Registry {
	reg := audit.NewRegistry(deps)
	if err := Register(reg); err != nil {
		// Unreachable: the registry is fresh and builtin IDs are unique.
		panic(err)
	}
	return reg
}
