package source

import (
	"fmt"
	"log/slog"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/config"
)

// ResolveBaseline picks the pre-image density source for a run from the
// configured mode. The explicit modes fail hard when their backing store
// is missing; "auto" walks the fallback chain git, then snapshot, then
// none, logging each step it skips.
//
// repo may be nil when the audited tree is not in a git repository, and
// snapshot may be nil when no snapshot store is configured.
func ResolveBaseline(mode string, repo *Repo, snapshot audit.BaselineSource, logger *slog.Logger) (audit.BaselineSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch mode {
	case config.BaselineNone:
		return nil, nil

	case config.BaselineGit:
		if repo == nil {
			return nil, fmt.Errorf("baseline %q requires a git repository", mode)
		}
		baseline, err := repo.Baseline()
		if err != nil {
			return nil, fmt.Errorf("failed to build git baseline: %w", err)
		}
		return baseline, nil

	case config.BaselineSnapshot:
		if snapshot == nil {
			return nil, fmt.Errorf("baseline %q requires a snapshot store", mode)
		}
		return snapshot, nil

	case config.BaselineAuto:
		if repo != nil {
			baseline, err := repo.Baseline()
			if err == nil {
				return baseline, nil
			}
			// A repo without commits ends up here.
			logger.Warn("git baseline unavailable, trying snapshot", "error", err)
		}
		if snapshot != nil {
			return snapshot, nil
		}
		logger.Warn("no baseline available, density checks will fail on modified files")
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown baseline mode %q", mode)
	}
}
