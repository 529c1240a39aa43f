package audit

import (
	"log/slog"
	"sort"
)

// Claim ties one rule ID to the check that enforces it and the engine
// the check belongs to.
type Claim struct {
	EngineID string
	Check    Check
}

// Resolver is the static rule-to-check resolution table. It is built once
// at registry initialization from every check's declared rule IDs and
// validated for duplicate claims; dispatch never guesses.
type Resolver struct {
	claims map[string]Claim
	logger *slog.Logger
}

// NewResolver creates an empty resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		claims: make(map[string]Claim),
		logger: logger.With("component", "resolver"),
	}
}

// RegisterEngine records the rule claims of every check in an engine.
// A check declaring no rule IDs is logged and skipped; a rule ID claimed
// by two checks is a DuplicateClaimError and fails initialization.
func (r *Resolver) RegisterEngine(engineID string, checks []Check) error {
	for _, check := range checks {
		ruleIDs := check.RuleIDs()
		if len(ruleIDs) == 0 {
			r.logger.Warn("check declares no enforcement and will never run",
				"engine", engineID,
				"check", check.ID(),
			)
			continue
		}
		for _, ruleID := range ruleIDs {
			if existing, ok := r.claims[ruleID]; ok {
				return &DuplicateClaimError{
					RuleID:      ruleID,
					FirstCheck:  existing.Check.ID(),
					SecondCheck: check.ID(),
				}
			}
			r.claims[ruleID] = Claim{EngineID: engineID, Check: check}
		}
	}
	return nil
}

// Resolve returns the claim for a rule ID.
func (r *Resolver) Resolve(ruleID string) (Claim, bool) {
	c, ok := r.claims[ruleID]
	return c, ok
}

// ClaimedRuleIDs returns the sorted rule IDs some check claims.
func (r *Resolver) ClaimedRuleIDs() []string {
	ids := make([]string, 0, len(r.claims))
	for id := range r.claims {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
