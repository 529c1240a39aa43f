package policy

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store is a thread-safe in-memory container for the active policy set.
// It maintains a flat rule index across all policies and rejects rule
// identifier collisions at registration time. Updates use copy-on-write
// semantics so concurrent readers never observe a half-applied set.
type Store struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	rules    map[string]*RuleSpec
	version  string
	loadTime time.Time
}

// NewStore creates a new empty policy store.
func NewStore() *Store {
	return &Store{
		policies: make(map[string]*Policy),
		rules:    make(map[string]*RuleSpec),
		loadTime: time.Now(),
	}
}

// Register adds a policy to the store. Re-registering an existing policy
// ID is an error; use Replace for atomic set updates. A rule ID collision
// with any already-registered policy is a DuplicateRuleError.
func (s *Store) Register(policy *Policy) error {
	if policy == nil {
		return &StoreError{
			Operation: "register",
			Message:   "policy cannot be nil",
		}
	}
	if policy.ID == "" {
		return &StoreError{
			Operation: "register",
			Message:   "policy id cannot be empty",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[policy.ID]; ok {
		return &StoreError{
			PolicyID:  policy.ID,
			Operation: "register",
			Message:   "policy already registered",
		}
	}

	for _, rule := range policy.Rules {
		if existing, ok := s.rules[rule.ID]; ok {
			return &DuplicateRuleError{
				RuleID:       rule.ID,
				FirstPolicy:  existing.SourcePolicy,
				SecondPolicy: policy.ID,
			}
		}
	}

	s.policies[policy.ID] = policy
	for _, rule := range policy.Rules {
		s.rules[rule.ID] = rule
	}
	s.updateVersion()

	return nil
}

// Replace atomically swaps the entire policy set. All policies are
// validated for rule collisions before any are applied; on error the
// previous set stays active.
func (s *Store) Replace(policies []*Policy) error {
	newPolicies := make(map[string]*Policy, len(policies))
	newRules := make(map[string]*RuleSpec)

	for _, policy := range policies {
		if policy == nil {
			return &StoreError{
				Operation: "replace",
				Message:   "policy cannot be nil",
			}
		}
		if policy.ID == "" {
			return &StoreError{
				Operation: "replace",
				Message:   "policy id cannot be empty",
			}
		}
		if _, ok := newPolicies[policy.ID]; ok {
			return &StoreError{
				PolicyID:  policy.ID,
				Operation: "replace",
				Message:   "policy id declared more than once",
			}
		}
		newPolicies[policy.ID] = policy

		for _, rule := range policy.Rules {
			if existing, ok := newRules[rule.ID]; ok {
				return &DuplicateRuleError{
					RuleID:       rule.ID,
					FirstPolicy:  existing.SourcePolicy,
					SecondPolicy: policy.ID,
				}
			}
			newRules[rule.ID] = rule
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies = newPolicies
	s.rules = newRules
	s.loadTime = time.Now()
	s.updateVersion()

	return nil
}

// Policy retrieves a policy by ID.
func (s *Store) Policy(id string) (*Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[id]
	return policy, ok
}

// Policies returns all policies sorted by ID. The returned slice is a
// snapshot and is not modified by the store.
func (s *Store) Policies() []*Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.policies))
	for id := range s.policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	policies := make([]*Policy, 0, len(ids))
	for _, id := range ids {
		policies = append(policies, s.policies[id])
	}
	return policies
}

// Rule retrieves a rule by its globally unique ID.
func (s *Store) Rule(id string) (*RuleSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	return rule, ok
}

// Rules returns all rules in the active set sorted by ID.
func (s *Store) Rules() []*RuleSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.rules))
	for id := range s.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rules := make([]*RuleSpec, 0, len(ids))
	for _, id := range ids {
		rules = append(rules, s.rules[id])
	}
	return rules
}

// RuleIDs returns the sorted IDs of every rule in the active set.
func (s *Store) RuleIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.rules))
	for id := range s.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PolicyCount returns the number of registered policies.
func (s *Store) PolicyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.policies)
}

// RuleCount returns the number of rules in the active set.
func (s *Store) RuleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rules)
}

// Version returns the current version of the store. The version changes
// whenever the policy set changes.
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// LoadTime returns when the policy set was last replaced.
func (s *Store) LoadTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadTime
}

// Stats returns aggregate statistics about the active policy set.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{
		PolicyCount: len(s.policies),
		RuleCount:   len(s.rules),
		LoadTime:    s.loadTime,
		Version:     s.version,
	}
	for _, rule := range s.rules {
		if rule.Mandatory {
			stats.MandatoryRules++
		}
		if rule.Severity == SeverityError {
			stats.BlockingRules++
		}
	}
	return stats
}

// updateVersion recomputes the version hash from the current state.
// Callers must hold the write lock.
func (s *Store) updateVersion() {
	h := sha256.New()

	ids := make([]string, 0, len(s.policies))
	for id := range s.policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		policy := s.policies[id]
		h.Write([]byte(policy.ID))
		h.Write([]byte(policy.Version))
		h.Write([]byte(policy.SourceFile))
		for _, rule := range policy.Rules {
			h.Write([]byte(rule.ID))
		}
	}

	s.version = fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// StoreStats contains aggregate statistics about the policy store.
type StoreStats struct {
	PolicyCount    int
	RuleCount      int
	MandatoryRules int
	BlockingRules  int
	LoadTime       time.Time
	Version        string
}
