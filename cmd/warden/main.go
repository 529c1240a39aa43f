// Warden is a self-auditing governance engine for source trees.
//
// It loads declared policy rules from YAML documents, runs the check
// engines that enforce them over a source tree, and reports findings
// together with enforcement coverage: which declared rules actually ran,
// which no check claims, and which crashed.
//
// Usage:
//
//	# Audit the current tree against ./policies
//	warden audit
//
//	# Audit a subset of rules with JSON output
//	warden audit --rules tree_walk.banned_output --output json
//
//	# Validate policy documents and report unenforceable rules
//	warden policy lint --dir policies/
//
//	# Re-audit continuously on source or policy changes
//	warden watch
//
//	# Inspect archived runs
//	warden history --limit 10
//
//	# Record a density baseline for trees outside git
//	warden snapshot take
//
//	# Show version information
//	warden version
package main

func main() {
	Execute()
}
