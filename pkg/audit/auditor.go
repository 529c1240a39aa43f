package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wardenhq/warden/pkg/policy"
)

// DefaultWorkers is the worker pool size used when the configuration does
// not set one.
const DefaultWorkers = 4

// AuditorConfig contains construction options for the Auditor.
type AuditorConfig struct {
	// Workers bounds concurrent check executions (default: DefaultWorkers)
	Workers int

	// Logger is the base logger (default: slog.Default())
	Logger *slog.Logger

	// Metrics receives run and check measurements; may be nil
	Metrics *Metrics

	// Tracer opens spans around runs and checks; may be nil
	Tracer trace.Tracer
}

// Auditor runs declared rules against an audit context and reports both
// findings and enforcement coverage. It is the only entry point
// surrounding tooling uses to trigger audits.
type Auditor struct {
	policies *policy.Store
	registry *Registry
	resolver *Resolver
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	workers  int
	gauge    dispatchGauge
}

// NewAuditor builds an auditor over the given policy store and engine
// registry. Every registered engine is constructed eagerly here so that
// malformed rule parameters and duplicate rule claims fail fast, before
// the first run.
func NewAuditor(store *policy.Store, registry *Registry, cfg AuditorConfig) (*Auditor, error) {
	if store == nil {
		return nil, fmt.Errorf("policy store is nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("engine registry is nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("warden-audit")
	}

	resolver := NewResolver(logger)
	for _, id := range registry.EngineIDs() {
		eng, err := registry.Get(id)
		if err != nil {
			return nil, err
		}
		if err := resolver.RegisterEngine(eng.ID(), eng.Checks()); err != nil {
			return nil, err
		}
	}

	return &Auditor{
		policies: store,
		registry: registry,
		resolver: resolver,
		logger:   logger.With("component", "auditor"),
		metrics:  cfg.Metrics,
		tracer:   tracer,
		workers:  workers,
	}, nil
}

// Filter selects a subset of the declared rules for RunFiltered. An empty
// filter selects everything.
type Filter struct {
	// RuleIDs selects rules by their identifiers
	RuleIDs []string

	// PolicyIDs selects every rule declared by the named policies
	PolicyIDs []string
}

// Empty reports whether the filter selects the full declared set.
func (f Filter) Empty() bool {
	return len(f.RuleIDs) == 0 && len(f.PolicyIDs) == 0
}

func (f Filter) selects(rule *policy.RuleSpec) bool {
	if f.Empty() {
		return true
	}
	for _, id := range f.RuleIDs {
		if rule.ID == id {
			return true
		}
	}
	for _, pid := range f.PolicyIDs {
		if rule.SourcePolicy == pid {
			return true
		}
	}
	return false
}

// RunFullAudit audits the context against every declared rule.
func (a *Auditor) RunFullAudit(ctx context.Context, actx *Context) (*Run, error) {
	return a.run(ctx, actx, Filter{})
}

// RunFiltered audits the context against the rules selected by the
// filter. Filter entries that match nothing are logged and skipped.
func (a *Auditor) RunFiltered(ctx context.Context, actx *Context, filter Filter) (*Run, error) {
	return a.run(ctx, actx, filter)
}

// checkGroup is one dispatch unit: a check plus every selected rule it
// enforces. Each check executes at most once per run regardless of how
// many rules map to it.
type checkGroup struct {
	engineID string
	check    Check
	ruleIDs  []string
}

func (a *Auditor) run(ctx context.Context, actx *Context, filter Filter) (*Run, error) {
	if actx == nil {
		return nil, ErrNilContext
	}

	runID := uuid.NewString()
	startedAt := time.Now()

	ctx, span := a.tracer.Start(ctx, "audit.run",
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
	defer span.End()

	logger := a.logger.With("run_id", runID)

	// Step 1: ensure the symbol index is loaded. The call is idempotent
	// on the collaborator side.
	if idx := actx.Index(); idx != nil {
		if err := idx.Load(ctx); err != nil {
			return nil, fmt.Errorf("failed to load symbol index: %w", err)
		}
	}

	// Step 2: select the declared rules for this run.
	rules := a.selectRules(filter, logger)
	ruleByID := make(map[string]*policy.RuleSpec, len(rules))
	selected := make(map[string]bool, len(rules))
	for _, rule := range rules {
		ruleByID[rule.ID] = rule
		selected[rule.ID] = true
	}

	if len(rules) == 0 {
		logger.Warn("no rules selected, audit passes vacuously",
			"policy_version", a.policies.Version(),
		)
	}

	// Step 3: resolve rules to checks and group by check so each check
	// dispatches exactly once.
	groups := make(map[string]*checkGroup)
	for _, rule := range rules {
		claim, ok := a.resolver.Resolve(rule.ID)
		if !ok {
			// Left out of every group: coverage will count it unmapped.
			continue
		}
		key := claim.EngineID + "/" + claim.Check.ID()
		grp, ok := groups[key]
		if !ok {
			grp = &checkGroup{engineID: claim.EngineID, check: claim.Check}
			groups[key] = grp
		}
		grp.ruleIDs = append(grp.ruleIDs, rule.ID)
	}

	// Deterministic dispatch order. Findings order stays unspecified;
	// this only keeps logs and traces stable.
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Step 4: dispatch on the bounded worker pool.
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		findings  []Finding
		executed  = make(map[string]bool)
		crashed   = make(map[string]bool)
		cancelled bool
	)
	sem := make(chan struct{}, a.workers)

dispatch:
	for _, key := range keys {
		grp := groups[key]

		// Stop handing out new work once the run is cancelled; checks
		// already in flight finish on their own.
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		default:
		}
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(grp *checkGroup) {
			defer wg.Done()
			defer func() { <-sem }()

			a.metrics.SetActiveChecks(a.gauge.enter())
			defer func() {
				a.gauge.exit()
				a.metrics.SetActiveChecks(a.gauge.Current())
			}()

			checkFindings, execErr := a.executeCheck(ctx, grp, actx)

			mu.Lock()
			defer mu.Unlock()
			if execErr != nil {
				for _, id := range grp.ruleIDs {
					crashed[id] = true
				}
				return
			}
			for _, f := range checkFindings {
				// A multi-rule check may emit findings outside the
				// filtered selection; drop those.
				if f.RuleID != "" && !selected[f.RuleID] {
					continue
				}
				findings = append(findings, f)
			}
			for _, id := range grp.ruleIDs {
				executed[id] = true
			}
		}(grp)
	}

	wg.Wait()

	if !cancelled && ctx.Err() != nil {
		cancelled = true
	}

	// Step 5: coverage and verdict.
	stats := ComputeCoverage(rules, executed, crashed)
	for _, id := range stats.UnmappedRuleIDs {
		rule := ruleByID[id]
		logger.Warn("declared rule has no enforcing check",
			"rule_id", id,
			"severity", rule.Severity.String(),
			"mandatory", rule.Mandatory,
		)
	}

	verdict := ComputeVerdict(findings, stats, ruleByID)

	status := StatusCompleted
	if cancelled {
		status = StatusCancelled
	}

	executedIDs := make([]string, 0, len(executed))
	for id := range executed {
		executedIDs = append(executedIDs, id)
	}
	sort.Strings(executedIDs)

	run := &Run{
		ID:              runID,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
		Findings:        findings,
		ExecutedRuleIDs: executedIDs,
		Stats:           stats,
		Verdict:         verdict,
		Status:          status,
		PolicyVersion:   a.policies.Version(),
	}

	a.metrics.RecordRun(run)
	span.SetAttributes(
		attribute.String("audit.verdict", verdict.String()),
		attribute.String("audit.status", status.String()),
		attribute.Int("audit.findings", len(findings)),
		attribute.Float64("audit.execution_rate", stats.ExecutionRate),
	)

	logger.Info("audit run finished",
		"verdict", verdict.String(),
		"status", status.String(),
		"findings", len(findings),
		"rules_total", stats.RulesTotal,
		"rules_enforced", stats.RulesEnforced,
		"rules_unmapped", stats.RulesUnmapped,
		"rules_crashed", stats.RulesCrashed,
		"execution_rate", stats.ExecutionRate,
		"duration_ms", run.Duration().Milliseconds(),
	)

	return run, nil
}

// selectRules returns the declared rules matching the filter, sorted by
// rule ID.
func (a *Auditor) selectRules(filter Filter, logger *slog.Logger) []*policy.RuleSpec {
	all := a.policies.Rules()
	if filter.Empty() {
		return all
	}

	declared := make(map[string]bool, len(all))
	policies := make(map[string]bool, len(all))
	for _, rule := range all {
		declared[rule.ID] = true
		policies[rule.SourcePolicy] = true
	}
	for _, id := range filter.RuleIDs {
		if !declared[id] {
			logger.Warn("filter names an undeclared rule", "rule_id", id)
		}
	}
	for _, id := range filter.PolicyIDs {
		if !policies[id] {
			logger.Warn("filter names an unknown policy", "policy_id", id)
		}
	}

	var rules []*policy.RuleSpec
	for _, rule := range all {
		if filter.selects(rule) {
			rules = append(rules, rule)
		}
	}
	return rules
}

// executeCheck runs one check with panic containment. A panic or error
// becomes a CheckExecutionError; it never propagates out of the run.
func (a *Auditor) executeCheck(ctx context.Context, grp *checkGroup, actx *Context) (findings []Finding, execErr *CheckExecutionError) {
	checkCtx, span := a.tracer.Start(ctx, "audit.check",
		trace.WithAttributes(
			attribute.String("check.id", grp.check.ID()),
			attribute.String("check.engine", grp.engineID),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			execErr = &CheckExecutionError{
				EngineID: grp.engineID,
				CheckID:  grp.check.ID(),
				RuleIDs:  grp.ruleIDs,
				Panic:    r,
			}
		}
		crashedNow := execErr != nil
		a.metrics.RecordCheck(grp.engineID, grp.check.ID(), time.Since(start), findings, crashedNow)
		if crashedNow {
			a.logger.Error("check crashed, marking its rules",
				"engine", grp.engineID,
				"check", grp.check.ID(),
				"rules", grp.ruleIDs,
				"error", execErr.Error(),
			)
		}
	}()

	result, err := grp.check.Execute(checkCtx, actx)
	if err != nil {
		return nil, &CheckExecutionError{
			EngineID: grp.engineID,
			CheckID:  grp.check.ID(),
			RuleIDs:  grp.ruleIDs,
			Cause:    err,
		}
	}
	return result, nil
}

// PoolPeak returns the worker pool's concurrent-execution high-water mark
// since the auditor was created.
func (a *Auditor) PoolPeak() int64 {
	return a.gauge.Peak()
}

// ClaimedRuleIDs exposes the resolver's claimed rule set, mainly for
// policy lint tooling that reports unmapped declarations before any run.
func (a *Auditor) ClaimedRuleIDs() []string {
	return a.resolver.ClaimedRuleIDs()
}
