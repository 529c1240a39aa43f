package audit

import (
	"log/slog"
	"sort"
	"sync"

	"wardenhq/warden/pkg/policy"
)

// Deps carries the construction inputs shared by every engine. Engines
// read rule parameters from the policy store at construction time so
// malformed parameters surface through Registry.Get, before any audit
// runs.
type Deps struct {
	// Policies is the active policy store
	Policies *policy.Store

	// Logger is the base logger; engines derive component loggers from it
	Logger *slog.Logger
}

// Rule looks up a declared rule by ID, tolerating a nil store. Engines
// use it to read severity, scope, and parameters for the rules they
// enforce, falling back to built-in defaults for undeclared rules.
func (d Deps) Rule(id string) (*policy.RuleSpec, bool) {
	if d.Policies == nil {
		return nil, false
	}
	return d.Policies.Rule(id)
}

// EngineConstructor builds one engine instance from shared dependencies.
type EngineConstructor func(deps Deps) (Engine, error)

// Registry constructs engines lazily and memoizes them by identifier.
// The first successful Get for an ID fixes the instance for the registry
// lifetime; construction failures propagate and are not cached, so a
// later Get retries. Unknown identifiers fail with
// UnsupportedEngineError.
type Registry struct {
	deps Deps

	mu           sync.Mutex
	constructors map[string]EngineConstructor
	instances    map[string]Engine
}

// NewRegistry creates an empty registry with the given shared
// dependencies.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Registry{
		deps:         deps,
		constructors: make(map[string]EngineConstructor),
		instances:    make(map[string]Engine),
	}
}

// Register adds an engine constructor under the given identifier.
// Registering an identifier twice returns ErrEngineExists.
func (r *Registry) Register(id string, ctor EngineConstructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.constructors[id]; ok {
		return ErrEngineExists
	}
	r.constructors[id] = ctor
	return nil
}

// Get returns the engine for the given identifier, constructing it on
// first use. Repeated calls return the identical instance.
func (r *Registry) Get(id string) (Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if eng, ok := r.instances[id]; ok {
		return eng, nil
	}

	ctor, ok := r.constructors[id]
	if !ok {
		return nil, &UnsupportedEngineError{
			EngineID: id,
			Known:    r.engineIDsLocked(),
		}
	}

	eng, err := ctor(r.deps)
	if err != nil {
		// Not cached: the caller sees the failure and a later Get
		// retries construction.
		return nil, &EngineConstructionError{EngineID: id, Cause: err}
	}

	r.instances[id] = eng
	return eng, nil
}

// EngineIDs returns the sorted identifiers of every registered engine
// kind, constructed or not.
func (r *Registry) EngineIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.engineIDsLocked()
}

func (r *Registry) engineIDsLocked() []string {
	ids := make([]string, 0, len(r.constructors))
	for id := range r.constructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
