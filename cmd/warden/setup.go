package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wardenhq/warden/internal/index"
	"wardenhq/warden/internal/snapshot"
	"wardenhq/warden/internal/source"
	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/audit/engines"
	"wardenhq/warden/pkg/config"
	"wardenhq/warden/pkg/policy"
	"wardenhq/warden/pkg/telemetry/logging"
)

// loadConfig initializes the process-wide configuration from the global
// --config flag. --verbose forces debug logging regardless of the file.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger from the telemetry configuration
// and installs it as the slog default.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// loadPolicies loads every policy document under the configured
// directory into a fresh store. Any unloadable document fails the whole
// load: a policy that cannot be read could be the one declaring a
// mandatory rule.
func loadPolicies(cfg *config.Config, logger *slog.Logger) (*policy.Store, error) {
	loader := policy.NewLoader(nil)
	policies, err := loader.LoadFromDirectory(cfg.Policy.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies from %s: %w", cfg.Policy.Dir, err)
	}

	store := policy.NewStore()
	if err := store.Replace(policies); err != nil {
		return nil, fmt.Errorf("failed to register policies: %w", err)
	}

	logger.Info("policies loaded",
		"dir", cfg.Policy.Dir,
		"policies", store.PolicyCount(),
		"rules", store.RuleCount(),
		"version", store.Version(),
	)
	return store, nil
}

// newAuditor assembles the engine registry and auditor over a policy
// store. Engine construction happens here, so malformed rule parameters
// fail the command before any run starts.
func newAuditor(cfg *config.Config, store *policy.Store, acfg audit.AuditorConfig) (*audit.Auditor, error) {
	if acfg.Workers == 0 {
		acfg.Workers = cfg.Audit.Workers
	}
	registry := engines.NewRegistry(audit.Deps{Policies: store, Logger: acfg.Logger})
	auditor, err := audit.NewAuditor(store, registry, acfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build auditor: %w", err)
	}
	return auditor, nil
}

// pipeline bundles the source-tree collaborators shared by audit and
// watch mode: the walker, the enclosing git repository when one exists,
// and the snapshot store when the baseline mode wants one.
type pipeline struct {
	walker *source.Walker
	repo   *source.Repo
	snap   *snapshot.Store
	mode   string
	logger *slog.Logger
}

// newPipeline builds the pipeline from the source and snapshot
// configuration. Outside a git worktree the repo stays nil and baseline
// resolution falls through to the snapshot store or none.
func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	walker, err := source.NewWalker(cfg.Source)
	if err != nil {
		return nil, err
	}

	repo, err := source.OpenRepo(walker.Root())
	if err != nil {
		if !errors.Is(err, source.ErrNoRepository) {
			return nil, err
		}
		logger.Debug("audited tree is not in a git repository", "root", walker.Root())
		repo = nil
	}

	var snap *snapshot.Store
	switch cfg.Source.Baseline {
	case config.BaselineSnapshot:
		snap, err = snapshot.Open(cfg.Snapshot.Path, logger)
		if err != nil {
			return nil, err
		}
	case config.BaselineAuto:
		// Only an existing snapshot participates in the fallback chain;
		// auto mode never creates one as a side effect.
		if _, statErr := os.Stat(cfg.Snapshot.Path); statErr == nil {
			snap, err = snapshot.Open(cfg.Snapshot.Path, logger)
			if err != nil {
				return nil, err
			}
		}
	}

	return &pipeline{
		walker: walker,
		repo:   repo,
		snap:   snap,
		mode:   cfg.Source.Baseline,
		logger: logger,
	}, nil
}

// Close releases the snapshot store if one was opened.
func (p *pipeline) Close() {
	if p.snap != nil {
		if err := p.snap.Close(); err != nil {
			p.logger.Warn("failed to close snapshot store", "error", err)
		}
	}
}

// BuildContext enumerates the tree and assembles a fresh audit context.
// Called once per run so watch mode always audits current state.
func (p *pipeline) BuildContext(ctx context.Context) (*audit.Context, error) {
	files, err := p.walker.Walk(ctx)
	if err != nil {
		return nil, err
	}

	var modified []string
	if p.repo != nil {
		modified, err = p.repo.ModifiedFiles()
		if err != nil {
			return nil, fmt.Errorf("failed to detect modified files: %w", err)
		}
	}

	var snapSource audit.BaselineSource
	if p.snap != nil {
		snapSource = p.snap
	}
	baseline, err := source.ResolveBaseline(p.mode, p.repo, snapSource, p.logger)
	if err != nil {
		return nil, err
	}

	reader := audit.DirReader(p.walker.Root())
	return audit.NewContext(audit.ContextConfig{
		RepoRoot:      p.walker.Root(),
		Files:         files,
		ModifiedFiles: modified,
		Index:         index.New(files, reader, p.logger),
		Baseline:      baseline,
		Reader:        reader,
	}), nil
}

// watchIgnores converts the database paths into repo-relative ignore
// globs for the source watcher, so archiving a run never retriggers one.
// Paths outside the audited tree need no glob.
func watchIgnores(root string, paths ...string) []string {
	var globs []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if rel == ".." || strings.HasPrefix(rel, "../") {
			continue
		}
		if dir := filepath.ToSlash(filepath.Dir(rel)); dir != "." {
			// SQLite sidecar files (-wal, -shm) live next to the
			// database, so the whole directory is ignored.
			globs = append(globs, dir+"/**")
		} else {
			globs = append(globs, rel+"*")
		}
	}
	return globs
}
