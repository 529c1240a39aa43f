package audit

import (
	"sort"

	"wardenhq/warden/pkg/policy"
)

// ComputeCoverage folds the executed and crashed rule sets into coverage
// statistics over the declared set. Every declared rule lands in exactly
// one bucket: enforced, crashed, or unmapped.
func ComputeCoverage(declared []*policy.RuleSpec, executed, crashed map[string]bool) CoverageStats {
	stats := CoverageStats{
		RulesTotal: len(declared),
	}

	for _, rule := range declared {
		switch {
		case executed[rule.ID]:
			stats.RulesEnforced++
		case crashed[rule.ID]:
			stats.RulesCrashed++
			stats.CrashedRuleIDs = append(stats.CrashedRuleIDs, rule.ID)
		default:
			stats.RulesUnmapped++
			stats.UnmappedRuleIDs = append(stats.UnmappedRuleIDs, rule.ID)
		}
	}

	sort.Strings(stats.CrashedRuleIDs)
	sort.Strings(stats.UnmappedRuleIDs)

	// An empty declared set is vacuously covered.
	if stats.RulesTotal == 0 {
		stats.ExecutionRate = 1.0
	} else {
		stats.ExecutionRate = float64(stats.RulesEnforced) / float64(stats.RulesTotal)
	}

	return stats
}

// ComputeVerdict applies the verdict law to a finished run:
//
//	FAIL      when any blocking finding exists
//	DEGRADED  when no blocking finding exists but a mandatory rule went
//	          unenforced (unmapped or crashed)
//	PASS      otherwise
//
// Non-mandatory enforcement gaps stay visible in the stats but do not
// change the verdict.
func ComputeVerdict(findings []Finding, stats CoverageStats, rules map[string]*policy.RuleSpec) Verdict {
	for _, f := range findings {
		if f.Severity.Blocking() {
			return VerdictFail
		}
	}

	for _, id := range stats.UnmappedRuleIDs {
		if rule, ok := rules[id]; ok && rule.Mandatory {
			return VerdictDegraded
		}
	}
	for _, id := range stats.CrashedRuleIDs {
		if rule, ok := rules[id]; ok && rule.Mandatory {
			return VerdictDegraded
		}
	}

	return VerdictPass
}
