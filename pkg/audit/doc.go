// Package audit implements the self-audit core of the Warden governance
// engine: the finding data model, the check dispatch pipeline, coverage
// accounting, and the verdict computation.
//
// The central question the package answers is not only "which rules are
// violated?" but "which declared rules were actually enforced?". Every
// audit run reports both: the findings produced by executed checks, and
// coverage statistics over the declared rule set (enforced, unmapped,
// crashed). A rule that no check claims, or whose check crashed, degrades
// the verdict instead of silently narrowing the audit.
//
// # Pipeline
//
// The Auditor resolves every declared rule to the check that enforces it
// through a static resolution table built at registry initialization,
// groups rules by check so each check executes exactly once per run,
// dispatches the checks on a bounded worker pool, and folds the results
// into an immutable Run with coverage stats and a verdict.
//
// Verdicts follow a fixed law: FAIL when any blocking finding exists,
// otherwise DEGRADED when any mandatory rule went unenforced, otherwise
// PASS.
//
// # Engines
//
// Checks are grouped into engines keyed by stable identifiers. The
// Registry constructs engines lazily and memoizes them per identifier;
// unknown identifiers fail with UnsupportedEngineError and construction
// failures propagate to the caller without being cached. The builtin
// engine set is registered in the engines subpackage, in exactly one
// place.
//
// # Failure containment
//
// A check that returns an error or panics marks all of its declared rules
// as crashed and the run continues. Only policy loading failures and
// unknown engine identifiers abort a run; a crash inside one check must
// never mask findings from the others.
package audit
