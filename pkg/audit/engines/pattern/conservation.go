package pattern

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"wardenhq/warden/pkg/audit"
	"wardenhq/warden/pkg/policy"
)

// conservationParams configure the minimum post/pre density ratio an
// edit must retain.
type conservationParams struct {
	MinRatio float64 `yaml:"min_ratio"`
}

const defaultMinRatio = 0.5

// logicConservationCheck emits one blocking finding per modified file
// whose non-whitespace density fell below the configured share of its
// pre-edit value.
type logicConservationCheck struct {
	audit.Binding
	minRatio float64
}

func newLogicConservationCheck(deps audit.Deps) (*logicConservationCheck, error) {
	params := conservationParams{MinRatio: defaultMinRatio}
	if err := audit.DecodeRuleParams(deps, RuleLogicConservation, &params); err != nil {
		return nil, err
	}
	if params.MinRatio <= 0 || params.MinRatio > 1 {
		return nil, fmt.Errorf("min_ratio %v out of range (0, 1]", params.MinRatio)
	}
	return &logicConservationCheck{
		Binding:  audit.Bind(deps, RuleLogicConservation, policy.SeverityError),
		minRatio: params.MinRatio,
	}, nil
}

// ID implements audit.Check.
func (c *logicConservationCheck) ID() string { return "logic_conservation" }

// RuleIDs implements audit.Check.
func (c *logicConservationCheck) RuleIDs() []string { return []string{RuleLogicConservation} }

// Execute implements audit.Check.
func (c *logicConservationCheck) Execute(ctx context.Context, actx *audit.Context) ([]audit.Finding, error) {
	var inScope []string
	for _, rel := range actx.ModifiedFiles() {
		if policy.MatchScope(c.Scope, rel) {
			inScope = append(inScope, rel)
		}
	}
	if len(inScope) == 0 {
		return nil, nil
	}
	if actx.Baseline() == nil {
		return nil, errors.New("modified files in scope but no baseline density source configured")
	}

	var findings []audit.Finding
	for _, rel := range inScope {
		pre, ok, err := actx.Baseline().Density(rel)
		if err != nil {
			return nil, fmt.Errorf("baseline density for %s: %w", rel, err)
		}
		// New files and empty pre-images have nothing to conserve.
		if !ok || pre == 0 {
			continue
		}

		post := 0
		content, err := actx.ReadFile(rel)
		switch {
		case err == nil:
			post = audit.Density(content)
		case errors.Is(err, fs.ErrNotExist):
			// Deleted outright: maximal evaporation.
		default:
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}

		ratio := float64(post) / float64(pre)
		if ratio >= c.minRatio {
			continue
		}
		findings = append(findings, c.Finding(c.ID(),
			fmt.Sprintf("non-whitespace density dropped %.0f%% (ratio %.2f below minimum %.2f)",
				(1-ratio)*100, ratio, c.minRatio),
			rel, 0))
	}
	return findings, nil
}
