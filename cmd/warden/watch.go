package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"wardenhq/warden/internal/history"
	"wardenhq/warden/internal/source"
	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/cli"
	"wardenhq/warden/pkg/policy"
	"wardenhq/warden/pkg/server"
	"wardenhq/warden/pkg/telemetry/health"
	"wardenhq/warden/pkg/telemetry/tracing"
)

var watchFlags struct {
	root   string
	listen string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-audit continuously on source and policy changes",
	Long: `Run Warden in the foreground, re-auditing the tree whenever source
files change, whenever the policy set changes (with policy.watch
enabled), and on the configured schedule.

Runs execute serially; changes arriving during a run coalesce into one
follow-up run. Every run is archived to history unless archiving is
disabled. A local HTTP endpoint serves Prometheus metrics, health
probes, and the latest run at /status.

Examples:
  # Watch the configured tree
  warden watch

  # Watch a different tree with the endpoint on another port
  warden watch --root ../service --listen 127.0.0.1:9470`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.root, "root", "", "override the audited tree root")
	watchCmd.Flags().StringVarP(&watchFlags.listen, "listen", "l", "", "override the observability listen address")
}

// engineState is one immutable (policy set, auditor) pair. A policy
// reload builds and validates a complete replacement before swapping it
// in, so a broken reload never disturbs the running pair.
type engineState struct {
	store   *policy.Store
	auditor *audit.Auditor
}

// stateHolder hands the current engineState to the run loop and the
// health probes.
type stateHolder struct {
	mu sync.RWMutex
	st *engineState
}

func (h *stateHolder) get() *engineState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.st
}

func (h *stateHolder) set(st *engineState) {
	h.mu.Lock()
	h.st = st
	h.mu.Unlock()
}

// latestRun retains the most recent finished run for the /status
// endpoint.
type latestRun struct {
	mu  sync.RWMutex
	run *audit.Run
}

func (l *latestRun) set(run *audit.Run) {
	l.mu.Lock()
	l.run = run
	l.mu.Unlock()
}

func (l *latestRun) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.mu.RLock()
		run := l.run
		l.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if run == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no run finished yet"})
			return
		}
		json.NewEncoder(w).Encode(run)
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchFlags.root != "" {
		cfg.Source.Root = watchFlags.root
	}
	if watchFlags.listen != "" {
		cfg.Watch.ListenAddress = watchFlags.listen
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

	metrics := audit.NewMetrics(prometheus.DefaultRegisterer)

	// The same metrics instance feeds every rebuilt auditor; collectors
	// register once.
	buildState := func() (*engineState, error) {
		store, err := loadPolicies(cfg, logger)
		if err != nil {
			return nil, err
		}
		auditor, err := newAuditor(cfg, store, audit.AuditorConfig{
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer.Tracer(),
		})
		if err != nil {
			return nil, err
		}
		return &engineState{store: store, auditor: auditor}, nil
	}

	st, err := buildState()
	if err != nil {
		return err
	}
	holder := &stateHolder{st: st}

	pipe, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer pipe.Close()

	ctx, cancel := context.WithCancel(cli.SetupSignalHandler())
	defer cancel()

	// Run archive and retention.
	var hist *history.Store
	if !cfg.History.Disabled {
		hist, err = history.NewStore(&history.Config{Path: cfg.History.Path}, logger)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer hist.Close()

		pruner := history.NewPruner(hist, history.PrunerConfig{
			RetentionDays: cfg.History.RetentionDays,
			Schedule:      cfg.History.PruneSchedule,
		}, logger)
		if err := pruner.Start(ctx); err != nil {
			logger.Warn("failed to start retention pruning", "error", err)
		} else {
			defer pruner.Stop()
		}
	}

	// Observability endpoint: metrics, probes, latest run.
	latest := &latestRun{}
	checker := health.New(0)
	checker.Register("policy_store", func(ctx context.Context) error {
		if holder.get().store.RuleCount() == 0 {
			return fmt.Errorf("no rules loaded")
		}
		return nil
	})
	if hist != nil {
		checker.Register("history", func(ctx context.Context) error {
			_, err := hist.Count(ctx)
			return err
		})
	}

	metricsPath := cfg.Telemetry.Metrics.Path
	if cfg.Telemetry.Metrics.Disabled {
		metricsPath = ""
	}
	srv := server.New(server.Options{
		Addr:          cfg.Watch.ListenAddress,
		Logger:        logger,
		Health:        checker,
		MetricsPath:   metricsPath,
		StatusHandler: latest.handler(),
		Version:       Version,
		Commit:        GitCommit,
		BuildTime:     BuildDate,
	})
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			serverErr <- err
		}
	}()

	// Serial run loop. A trigger arriving while one is queued is
	// dropped: the queued run audits the tree as it is then.
	triggers := make(chan string, 1)
	requestRun := func(reason string) {
		select {
		case triggers <- reason:
		default:
		}
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case reason := <-triggers:
				executeWatchRun(ctx, pipe, holder, hist, latest, reason)
			}
		}
	}()

	// Scheduled full audits.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Watch.Schedule, func() { requestRun("schedule") }); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", cfg.Watch.Schedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Source changes. The databases this process writes are ignored so
	// archiving a run never retriggers one.
	ignores := watchIgnores(pipe.walker.Root(), cfg.History.Path, cfg.Snapshot.Path)
	sourceWatcher, err := source.NewWatcher(pipe.walker, source.WatchConfig{
		Debounce: cfg.Watch.Debounce,
		Ignore:   ignores,
	}, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := sourceWatcher.Watch(ctx, func() { requestRun("watch") }); err != nil {
			logger.Error("source watcher failed", "error", err)
		}
	}()
	defer sourceWatcher.Stop()

	// Policy changes: validate a full replacement pair, swap, re-audit.
	if cfg.Policy.Watch {
		policyWatcher, err := policy.NewWatcher(cfg.Policy.Dir, logger)
		if err != nil {
			return err
		}
		go func() {
			err := policyWatcher.Watch(ctx, func() error {
				fresh, err := buildState()
				if err != nil {
					return err
				}
				holder.set(fresh)
				requestRun("policy")
				return nil
			})
			if err != nil {
				logger.Error("policy watcher failed", "error", err)
			}
		}()
		defer policyWatcher.Stop()
	}

	fmt.Printf("Warden %s watching %s\n", Version, pipe.walker.Root())
	fmt.Printf("✓ Policies loaded (%d policies, %d rules)\n", st.store.PolicyCount(), st.store.RuleCount())
	fmt.Printf("✓ Audit schedule: %s\n", cfg.Watch.Schedule)
	fmt.Printf("✓ Observability on http://%s\n", cfg.Watch.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	requestRun("startup")

	select {
	case err := <-serverErr:
		return cli.NewCommandError("watch", cli.ExitError, err)
	case <-ctx.Done():
		fmt.Println("\nShutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown failed", "error", err)
			return cli.NewCommandError("watch", cli.ExitError, err)
		}
		fmt.Println("✓ Stopped")
		return nil
	}
}

// executeWatchRun performs one audit run and records the outcome. Run
// failures are logged, never fatal: watch mode outlives a bad run.
func executeWatchRun(ctx context.Context, pipe *pipeline, holder *stateHolder, hist *history.Store, latest *latestRun, reason string) {
	st := holder.get()
	logger := pipe.logger

	logger.Info("audit run triggered", "trigger", reason)

	actx, err := pipe.BuildContext(ctx)
	if err != nil {
		logger.Error("failed to build audit context", "trigger", reason, "error", err)
		return
	}

	run, err := st.auditor.RunFullAudit(ctx, actx)
	if err != nil {
		logger.Error("audit run failed", "trigger", reason, "error", err)
		return
	}

	latest.set(run)
	if hist != nil {
		// Fresh context: a cancelled run is still worth archiving.
		if err := hist.Archive(context.Background(), run, reason); err != nil {
			logger.Warn("failed to archive run", "run_id", run.ID, "error", err)
		}
	}
}
