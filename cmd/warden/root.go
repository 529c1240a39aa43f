package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wardenhq/warden/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - self-auditing governance engine for source trees",
	Long: `Warden audits source trees against declared policy rules and reports
both findings and enforcement coverage.

Every audit run answers two questions:
  - What did the checks find?
  - Which declared rules were actually enforced, and which were not?

A rule no check claims, or whose check crashes, degrades the run instead
of silently passing it.

For more information, visit: https://github.com/wardenhq/warden`,
	Version: Version,

	// Errors are rendered once by Execute with their exit code applied;
	// usage text is reserved for flag parsing mistakes.
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the mapped code: 0 for a
// passing run, 1 for a FAIL verdict, 2 for tool errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
