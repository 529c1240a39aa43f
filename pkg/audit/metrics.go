package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the audit pipeline. All record
// methods are nil-safe so the Auditor works without metrics wired.
type Metrics struct {
	// Run outcomes
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram

	// Findings
	findingsTotal *prometheus.CounterVec

	// Check dispatch
	checkDuration *prometheus.HistogramVec
	checkCrashes  *prometheus.CounterVec
	checksActive  prometheus.Gauge

	// Coverage
	rulesEnforced prometheus.Gauge
	rulesUnmapped prometheus.Gauge
	rulesCrashed  prometheus.Gauge
	executionRate prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on the given
// registerer. Pass prometheus.DefaultRegisterer for the process default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_audit_runs_total",
				Help: "Total number of audit runs by verdict and status",
			},
			[]string{"verdict", "status"},
		),

		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "warden_audit_run_duration_seconds",
				Help:    "Wall-clock duration of audit runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~82s
			},
		),

		findingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_audit_findings_total",
				Help: "Total number of findings by severity and engine",
			},
			[]string{"severity", "engine"},
		),

		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_audit_check_duration_seconds",
				Help:    "Duration of individual check executions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~32s
			},
			[]string{"engine", "check"},
		),

		checkCrashes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_audit_check_crashes_total",
				Help: "Total number of check executions that errored or panicked",
			},
			[]string{"engine", "check"},
		),

		checksActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_audit_checks_active",
				Help: "Number of checks executing right now",
			},
		),

		rulesEnforced: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_audit_rules_enforced",
				Help: "Rules enforced by the most recent run",
			},
		),

		rulesUnmapped: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_audit_rules_unmapped",
				Help: "Rules no check claimed in the most recent run",
			},
		),

		rulesCrashed: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_audit_rules_crashed",
				Help: "Rules whose check crashed in the most recent run",
			},
		),

		executionRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_audit_execution_rate",
				Help: "Fraction of declared rules enforced by the most recent run",
			},
		),
	}
}

// RecordRun records the outcome and coverage of a finished run.
func (m *Metrics) RecordRun(run *Run) {
	if m == nil || run == nil {
		return
	}
	m.runsTotal.WithLabelValues(run.Verdict.String(), run.Status.String()).Inc()
	m.runDuration.Observe(run.Duration().Seconds())

	m.rulesEnforced.Set(float64(run.Stats.RulesEnforced))
	m.rulesUnmapped.Set(float64(run.Stats.RulesUnmapped))
	m.rulesCrashed.Set(float64(run.Stats.RulesCrashed))
	m.executionRate.Set(run.Stats.ExecutionRate)
}

// RecordCheck records one check execution.
func (m *Metrics) RecordCheck(engineID, checkID string, duration time.Duration, findings []Finding, crashed bool) {
	if m == nil {
		return
	}
	m.checkDuration.WithLabelValues(engineID, checkID).Observe(duration.Seconds())
	if crashed {
		m.checkCrashes.WithLabelValues(engineID, checkID).Inc()
	}
	for _, f := range findings {
		m.findingsTotal.WithLabelValues(f.Severity.String(), engineID).Inc()
	}
}

// SetActiveChecks updates the in-flight check gauge.
func (m *Metrics) SetActiveChecks(n int64) {
	if m == nil {
		return
	}
	m.checksActive.Set(float64(n))
}
