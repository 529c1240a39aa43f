package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"wardenhq/warden/internal/history"
	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/cli"
	"wardenhq/warden/pkg/config"
	"wardenhq/warden/pkg/telemetry/tracing"
)

var auditFlags struct {
	root      string
	rules     []string
	policies  []string
	output    string
	workers   int
	noArchive bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the source tree against the declared rules",
	Long: `Audit the source tree against every declared policy rule and report
findings together with enforcement coverage.

The process exit code reflects the verdict: PASS and DEGRADED exit 0
(DEGRADED prints a coverage warning to stderr), FAIL exits 1. Exit 2
means the audit itself could not run.

Examples:
  # Full audit of the configured tree
  warden audit

  # Audit a different tree
  warden audit --root ../service

  # Audit only two rules
  warden audit --rules tree_walk.banned_output,pattern.logic_conservation

  # Audit every rule declared by one policy
  warden audit --policies core-governance

  # Machine-readable output for CI
  warden audit --output json`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditFlags.root, "root", "", "override the audited tree root")
	auditCmd.Flags().StringSliceVar(&auditFlags.rules, "rules", nil, "audit only these rule IDs")
	auditCmd.Flags().StringSliceVar(&auditFlags.policies, "policies", nil, "audit only rules declared by these policies")
	auditCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "text", "output format: text, json")
	auditCmd.Flags().IntVar(&auditFlags.workers, "workers", 0, "override the check worker pool size")
	auditCmd.Flags().BoolVar(&auditFlags.noArchive, "no-archive", false, "skip archiving the run to history")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if auditFlags.root != "" {
		cfg.Source.Root = auditFlags.root
	}
	if auditFlags.workers > 0 {
		cfg.Audit.Workers = auditFlags.workers
	}

	format, err := cli.ParseFormat(auditFlags.output)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx := cli.SetupSignalHandler()
	if cfg.Audit.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Audit.Timeout)
		defer cancel()
	}

	filter := audit.Filter{
		RuleIDs:   auditFlags.rules,
		PolicyIDs: auditFlags.policies,
	}
	run, err := executeAudit(ctx, cfg, logger, filter, tracer)
	if err != nil {
		return err
	}

	if !cfg.History.Disabled && !auditFlags.noArchive {
		archiveRun(cfg, logger, run, "manual")
	}

	if err := cli.WriteRun(os.Stdout, run, format); err != nil {
		return err
	}

	if run.Verdict == audit.VerdictDegraded {
		fmt.Fprintf(os.Stderr, "warning: %d of %d rules unenforced, coverage degraded\n",
			run.Stats.RulesUnmapped+run.Stats.RulesCrashed, run.Stats.RulesTotal)
	}

	if code := cli.VerdictExitCode(run.Verdict); code != cli.ExitPass {
		return cli.NewCommandError("audit", code,
			fmt.Errorf("verdict %s with %d blocking findings",
				run.Verdict, len(run.BlockingFindings())))
	}
	return nil
}

// executeAudit loads policies, assembles the pipeline, and runs one
// audit. Split out of the cobra handler so tests drive it with an
// explicit configuration instead of the process singleton.
func executeAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, filter audit.Filter, tracer *tracing.Tracer) (*audit.Run, error) {
	store, err := loadPolicies(cfg, logger)
	if err != nil {
		return nil, err
	}

	pipe, err := newPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer pipe.Close()

	acfg := audit.AuditorConfig{Logger: logger}
	if tracer != nil {
		acfg.Tracer = tracer.Tracer()
	}
	auditor, err := newAuditor(cfg, store, acfg)
	if err != nil {
		return nil, err
	}

	actx, err := pipe.BuildContext(ctx)
	if err != nil {
		return nil, err
	}

	if filter.Empty() {
		return auditor.RunFullAudit(ctx, actx)
	}
	return auditor.RunFiltered(ctx, actx, filter)
}

// archiveRun persists a finished run to the history database. Failure to
// archive is reported but never changes the run's verdict or exit code.
// The archive write uses a fresh context so a cancelled run is still
// recorded.
func archiveRun(cfg *config.Config, logger *slog.Logger, run *audit.Run, trigger string) {
	store, err := history.NewStore(&history.Config{Path: cfg.History.Path}, logger)
	if err != nil {
		logger.Warn("failed to open history store, run not archived",
			"path", cfg.History.Path, "error", err)
		return
	}
	defer store.Close()

	if err := store.Archive(context.Background(), run, trigger); err != nil {
		logger.Warn("failed to archive run", "run_id", run.ID, "error", err)
		return
	}
	logger.Debug("run archived", "run_id", run.ID, "trigger", trigger)
}
