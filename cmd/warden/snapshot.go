package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wardenhq/warden/internal/snapshot"
	"wardenhq/warden/internal/source"
	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/cli"
)

var snapshotFlags struct {
	root   string
	quiet  bool
	format string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the density baseline snapshot",
	Long: `Manage the density snapshot used as the pre-edit baseline for
logic-conservation checks when the audited tree is not in git.

Subcommands:
  take - Record the current tree as the baseline
  info - Show what the stored snapshot covers

Examples:
  # Record the current tree
  warden snapshot take

  # Show the stored snapshot
  warden snapshot info`,
}

var snapshotTakeCmd = &cobra.Command{
	Use:   "take",
	Short: "Record the current tree as the density baseline",
	Long: `Record the content density of every file in the audited tree.

A later audit configured with baseline mode "snapshot" (or "auto"
outside git) compares modified files against these recorded densities.
Taking a snapshot replaces the previous one.`,
	RunE: takeSnapshot,
}

var snapshotInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the stored snapshot covers",
	RunE:  showSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotTakeCmd, snapshotInfoCmd)

	snapshotCmd.PersistentFlags().StringVar(&snapshotFlags.format, "format", "text", "output format: text, json")
	snapshotTakeCmd.Flags().StringVar(&snapshotFlags.root, "root", "", "override the audited tree root")
	snapshotTakeCmd.Flags().BoolVarP(&snapshotFlags.quiet, "quiet", "q", false, "suppress the progress bar")
}

func takeSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if snapshotFlags.root != "" {
		cfg.Source.Root = snapshotFlags.root
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	walker, err := source.NewWalker(cfg.Source)
	if err != nil {
		return err
	}

	ctx := cli.SetupSignalHandler()
	files, err := walker.Walk(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate source tree: %w", err)
	}

	store, err := snapshot.Open(cfg.Snapshot.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	var reporter cli.ProgressReporter = cli.NopProgress{}
	if !snapshotFlags.quiet {
		reporter = cli.NewProgressReporter(os.Stderr)
	}

	started := false
	count, err := store.Take(ctx, walker.Root(), files, audit.DirReader(walker.Root()),
		func(done, total int64) {
			if !started {
				reporter.Start(total)
				started = true
			}
			reporter.Update(done)
		})
	if err != nil {
		reporter.Error(err)
		return fmt.Errorf("failed to take snapshot: %w", err)
	}
	reporter.Finish()

	fmt.Printf("✓ Snapshot recorded: %d files from %s\n", count, walker.Root())
	fmt.Printf("  Store: %s\n", cfg.Snapshot.Path)
	return nil
}

func showSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Snapshot.Path); os.IsNotExist(err) {
		fmt.Println("No snapshot recorded")
		return nil
	}

	store, err := snapshot.Open(cfg.Snapshot.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	info, ok, err := store.Info(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !ok {
		fmt.Println("No snapshot recorded")
		return nil
	}

	if snapshotFlags.format == "json" {
		return cli.WriteJSON(os.Stdout, info)
	}

	fmt.Printf("Snapshot of %s\n", info.Root)
	fmt.Printf("  Taken: %s\n", info.TakenAt.Format(time.RFC3339))
	fmt.Printf("  Files: %d\n", info.FileCount)
	fmt.Printf("  Store: %s\n", cfg.Snapshot.Path)
	return nil
}
