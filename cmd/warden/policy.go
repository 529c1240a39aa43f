package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/audit/engines"
	"wardenhq/warden/pkg/cli"
	"wardenhq/warden/pkg/policy"
)

var policyFlags struct {
	dir    string
	strict bool
	format string
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and validate policy documents",
	Long: `Inspect and validate the policy documents Warden audits against.

Subcommands:
  lint - Validate policy documents and report unenforceable rules
  list - Show the loaded policy set

Examples:
  # Validate the configured policy directory
  warden policy lint

  # Validate another directory, treating coverage gaps as errors
  warden policy lint --dir ../policies --strict

  # Show the loaded policies as JSON
  warden policy list --format json`,
}

var policyLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy documents",
	Long: `Validate policy documents for load, parse, and semantic errors, and
report declared rules no built-in engine claims.

Lint answers the question an audit would otherwise answer late: will
every declared rule actually be enforced? Documents that fail to parse,
rules with malformed parameters, and rule IDs outside every engine's
claim are all reported here, before any run.

Unenforceable rules are warnings by default because the audit itself
reports them as coverage degradation; --strict turns them into errors
for CI gates.

Examples:
  # Lint the configured policy directory
  warden policy lint

  # Lint a specific directory
  warden policy lint --dir policies/

  # Warnings as errors
  warden policy lint --strict

  # JSON output for CI/CD
  warden policy lint --format json`,
	RunE: lintPolicies,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the loaded policy set",
	Long: `Show every policy document in the configured directory with its
version, rule count, and source file.

Examples:
  # List policies
  warden policy list

  # JSON output
  warden policy list --format json`,
	RunE: listPolicies,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyLintCmd, policyListCmd)

	policyCmd.PersistentFlags().StringVarP(&policyFlags.dir, "dir", "d", "", "policy directory (default from config)")
	policyCmd.PersistentFlags().StringVar(&policyFlags.format, "format", "text", "output format: text, json")

	policyLintCmd.Flags().BoolVar(&policyFlags.strict, "strict", false, "treat warnings as errors")
}

// LintResult is the outcome of linting one policy directory.
type LintResult struct {
	Dir      string        `json:"dir"`
	Policies int           `json:"policies"`
	Rules    int           `json:"rules"`
	Valid    bool          `json:"valid"`
	Errors   []LintProblem `json:"errors,omitempty"`
	Warnings []LintProblem `json:"warnings,omitempty"`
}

// LintProblem is a single lint error or warning.
type LintProblem struct {
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
}

func lintPolicies(cmd *cobra.Command, args []string) error {
	dir, err := policyDir()
	if err != nil {
		return err
	}

	result := lintDirectory(dir)

	if policyFlags.format == "json" {
		if err := cli.WriteJSON(os.Stdout, result); err != nil {
			return err
		}
	} else {
		writeLintText(result)
	}

	if len(result.Errors) > 0 {
		return cli.NewCommandError("policy lint", cli.ExitFail,
			fmt.Errorf("%d error(s) in %s", len(result.Errors), dir))
	}
	if policyFlags.strict && len(result.Warnings) > 0 {
		return cli.NewCommandError("policy lint", cli.ExitFail,
			fmt.Errorf("%d warning(s) in %s (strict mode)", len(result.Warnings), dir))
	}
	return nil
}

// lintDirectory validates one policy directory: document loading, store
// registration (rule ID collisions), engine construction (malformed
// parameters), and rule-to-check coverage.
func lintDirectory(dir string) LintResult {
	result := LintResult{Dir: dir, Valid: true}
	fail := func(ruleID, message string) {
		result.Valid = false
		result.Errors = append(result.Errors, LintProblem{RuleID: ruleID, Message: message})
	}

	loader := policy.NewLoader(nil)
	policies, err := loader.LoadFromDirectory(dir)
	if err != nil {
		if list, ok := err.(*policy.ErrorList); ok {
			for _, e := range list.Errors {
				fail("", e.Error())
			}
		} else {
			fail("", err.Error())
		}
	}
	result.Policies = len(policies)

	store := policy.NewStore()
	if err := store.Replace(policies); err != nil {
		fail("", err.Error())
		return result
	}
	result.Rules = store.RuleCount()

	// Engine construction consumes the declared parameters, so a rule
	// with a bad expression or threshold fails here, not mid-run.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := engines.NewRegistry(audit.Deps{Policies: store, Logger: quiet})
	auditor, err := audit.NewAuditor(store, registry, audit.AuditorConfig{Logger: quiet})
	if err != nil {
		fail("", err.Error())
		return result
	}

	claimed := make(map[string]bool)
	for _, id := range auditor.ClaimedRuleIDs() {
		claimed[id] = true
	}
	for _, rule := range store.Rules() {
		if claimed[rule.ID] {
			continue
		}
		problem := LintProblem{
			RuleID:  rule.ID,
			Message: "no built-in check claims this rule, audits will report it unmapped",
		}
		if rule.Mandatory {
			problem.Message += " and degrade the verdict"
		}
		result.Warnings = append(result.Warnings, problem)
	}

	return result
}

func writeLintText(result LintResult) {
	fmt.Printf("Linting %s...\n", result.Dir)

	for _, e := range result.Errors {
		if e.RuleID != "" {
			fmt.Printf("✗ Error: [%s] %s\n", e.RuleID, e.Message)
		} else {
			fmt.Printf("✗ Error: %s\n", e.Message)
		}
	}
	for _, w := range result.Warnings {
		if w.RuleID != "" {
			fmt.Printf("⚠  Warning: [%s] %s\n", w.RuleID, w.Message)
		} else {
			fmt.Printf("⚠  Warning: %s\n", w.Message)
		}
	}

	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		fmt.Println("✓ All documents valid")
		fmt.Println("✓ Every declared rule is claimed by a check")
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d policies, %d rules, %d error(s), %d warning(s)\n",
		result.Policies, result.Rules, len(result.Errors), len(result.Warnings))
}

// policyListing is the list command's view of one policy document.
type policyListing struct {
	ID          string `json:"id"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Rules       int    `json:"rules"`
	Mandatory   int    `json:"mandatory"`
	SourceFile  string `json:"source_file"`
}

func listPolicies(cmd *cobra.Command, args []string) error {
	dir, err := policyDir()
	if err != nil {
		return err
	}

	loader := policy.NewLoader(nil)
	policies, err := loader.LoadFromDirectory(dir)
	if err != nil {
		return fmt.Errorf("failed to load policies from %s: %w", dir, err)
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].ID < policies[j].ID })

	listings := make([]policyListing, 0, len(policies))
	for _, p := range policies {
		listing := policyListing{
			ID:          p.ID,
			Version:     p.Version,
			Description: p.Description,
			Rules:       p.RuleCount(),
			SourceFile:  p.SourceFile,
		}
		for _, rule := range p.Rules {
			if rule.Mandatory {
				listing.Mandatory++
			}
		}
		listings = append(listings, listing)
	}

	if policyFlags.format == "json" {
		return cli.WriteJSON(os.Stdout, listings)
	}

	fmt.Printf("Policies in %s:\n\n", dir)
	for _, l := range listings {
		fmt.Printf("%s", l.ID)
		if l.Version != "" {
			fmt.Printf(" (v%s)", l.Version)
		}
		fmt.Println()
		if l.Description != "" {
			fmt.Printf("  %s\n", l.Description)
		}
		fmt.Printf("  Rules:  %d (%d mandatory)\n", l.Rules, l.Mandatory)
		fmt.Printf("  Source: %s\n", l.SourceFile)
		fmt.Println()
	}
	fmt.Printf("%d policies\n", len(listings))
	return nil
}

// policyDir resolves the policy directory from the --dir flag, falling
// back to the configuration.
func policyDir() (string, error) {
	if policyFlags.dir != "" {
		return policyFlags.dir, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Policy.Dir, nil
}
