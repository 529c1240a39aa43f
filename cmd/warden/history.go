package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wardenhq/warden/internal/history"
	"wardenhq/warden/pkg/cli"
)

var historyFlags struct {
	limit  int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived audit runs",
	Long: `Show archived audit runs, newest first.

Every completed audit is archived with its verdict, coverage stats, and
findings unless archiving is disabled. The bare command lists recent
runs; 'show' prints one run in full.

Examples:
  # List the last 10 runs
  warden history --limit 10

  # Show one run with its findings
  warden history show 2f6b3c1a-98d4-4c2f-a1f0-d42f9a31c77e

  # JSON output
  warden history --format json`,
	RunE: listRuns,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived run with its findings",
	Args:  cobra.ExactArgs(1),
	RunE:  showRun,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().StringVar(&historyFlags.format, "format", "text", "output format: text, json")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "number of runs to show")
}

// openHistory opens the configured history store.
func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return history.NewStore(&history.Config{Path: cfg.History.Path}, logger)
}

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	summaries, err := store.Recent(ctx, historyFlags.limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyFlags.format == "json" {
		return cli.WriteJSON(os.Stdout, summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No archived runs")
		return nil
	}

	total, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}

	fmt.Printf("Recent audit runs (%d of %d archived):\n\n", len(summaries), total)
	for i, s := range summaries {
		fmt.Printf("%d. %s\n", i+1, s.ID)
		fmt.Printf("   Verdict:  %s (%s)\n", s.Verdict, s.Status)
		fmt.Printf("   Started:  %s\n", s.StartedAt.Format(time.RFC3339))
		fmt.Printf("   Duration: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
		fmt.Printf("   Trigger:  %s\n", s.Trigger)
		fmt.Printf("   Rules:    %d/%d enforced (%.1f%%)\n",
			s.Stats.RulesEnforced, s.Stats.RulesTotal, s.Stats.ExecutionRate*100)
		fmt.Printf("   Findings: %d\n", s.FindingCount)
		fmt.Println()
	}
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	run, ok, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read run: %w", err)
	}
	if !ok {
		return fmt.Errorf("run %q is not archived", args[0])
	}

	if historyFlags.format == "json" {
		return cli.WriteJSON(os.Stdout, run)
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Verdict:  %s (%s)\n", run.Verdict, run.Status)
	fmt.Printf("  Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Printf("  Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Printf("  Trigger:  %s\n", run.Trigger)
	if run.PolicyVersion != "" {
		fmt.Printf("  Policies: %s\n", run.PolicyVersion)
	}
	fmt.Printf("  Rules:    %d/%d enforced (%.1f%%)\n",
		run.Stats.RulesEnforced, run.Stats.RulesTotal, run.Stats.ExecutionRate*100)
	if len(run.Stats.UnmappedRuleIDs) > 0 {
		fmt.Printf("  Unmapped: %s\n", strings.Join(run.Stats.UnmappedRuleIDs, ", "))
	}
	if len(run.Stats.CrashedRuleIDs) > 0 {
		fmt.Printf("  Crashed:  %s\n", strings.Join(run.Stats.CrashedRuleIDs, ", "))
	}

	if len(run.Findings) > 0 {
		fmt.Printf("\nFindings (%d):\n", len(run.Findings))
		for _, f := range run.Findings {
			fmt.Printf("  %s\n", f.String())
		}
	}
	return nil
}
