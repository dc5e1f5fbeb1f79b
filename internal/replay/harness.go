package replay

import (
	"fmt"

	"github.com/danielpatrickdp/chandra/internal/analysis"
	"github.com/danielpatrickdp/chandra/internal/integrate"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region types
// Case is a single recorded conversation with the verdicts it should produce.
type Case struct {
	Name       string
	Turns      []psi.Turn
	Transcript string
	Expected   Expectation
}

// Expectation lists the checked verdicts. Zero values are not checked.
type Expectation struct {
	DominantLevel  int
	BoundaryStatus integrate.BoundaryStatus
	Attractor      psi.Attractor
	AdvisoryCount  *int
}

// ReplayConfig bundles the thresholds for a replay run.
type ReplayConfig struct {
	PsiConfig       psi.Config
	IntegrateConfig integrate.Config
}

// DefaultReplayConfig returns the standard thresholds.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		PsiConfig:       psi.DefaultConfig(),
		IntegrateConfig: integrate.DefaultConfig(),
	}
}

// Validate rejects thresholds the pipeline cannot run with.
func (c ReplayConfig) Validate() error {
	if c.PsiConfig.HistoryCapacity <= 0 {
		return fmt.Errorf("psi.history_capacity must be positive, got %d", c.PsiConfig.HistoryCapacity)
	}
	if c.PsiConfig.CriticalEpsilon < c.PsiConfig.EpsilonMax {
		return fmt.Errorf("psi.critical_epsilon %.3f below epsilon_max %.3f", c.PsiConfig.CriticalEpsilon, c.PsiConfig.EpsilonMax)
	}
	return nil
}

// ReplayResult captures the outcome of replaying one case.
type ReplayResult struct {
	Name       string
	Action     string // "match" | "mismatch" | "invalid"
	Mismatches []string
	Report     analysis.Report
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases int
	Matches    int
	Mismatches int
	Invalid    int
}

// #endregion types

// #region replay
// Replay runs every case through a fresh pipeline built from config and
// compares the verdicts. A report that fails validation is "invalid"
// regardless of expectations.
func Replay(cases []Case, config ReplayConfig, opts ...analysis.Option) []ReplayResult {
	opts = append([]analysis.Option{
		analysis.WithPsiConfig(config.PsiConfig),
		analysis.WithIntegrateConfig(config.IntegrateConfig),
	}, opts...)
	a := analysis.New(opts...)

	results := make([]ReplayResult, 0, len(cases))
	for _, c := range cases {
		report := a.Analyze(c.Turns, c.Transcript)
		result := ReplayResult{Name: c.Name, Report: report}

		if !report.Validation.Passed {
			result.Action = "invalid"
			result.Mismatches = []string{report.Validation.Reason}
			results = append(results, result)
			continue
		}

		result.Mismatches = compare(c.Expected, report)
		result.Action = "match"
		if len(result.Mismatches) > 0 {
			result.Action = "mismatch"
		}
		results = append(results, result)
	}
	return results
}

func compare(want Expectation, r analysis.Report) []string {
	var out []string
	if want.DominantLevel != 0 && want.DominantLevel != r.Diagnostic.Profile.Dominant.Level {
		out = append(out, fmt.Sprintf("dominant level: want L%d, got L%d", want.DominantLevel, r.Diagnostic.Profile.Dominant.Level))
	}
	if want.BoundaryStatus != "" && want.BoundaryStatus != r.Assessment.Boundary.Status {
		out = append(out, fmt.Sprintf("boundary: want %s, got %s", want.BoundaryStatus, r.Assessment.Boundary.Status))
	}
	if want.Attractor != "" && want.Attractor != r.Psi.Attractor {
		out = append(out, fmt.Sprintf("attractor: want %s, got %s", want.Attractor, r.Psi.Attractor))
	}
	if want.AdvisoryCount != nil && *want.AdvisoryCount != len(r.Assessment.Advisories) {
		out = append(out, fmt.Sprintf("advisories: want %d, got %d", *want.AdvisoryCount, len(r.Assessment.Advisories)))
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results)}
	for _, r := range results {
		switch r.Action {
		case "match":
			s.Matches++
		case "mismatch":
			s.Mismatches++
		case "invalid":
			s.Invalid++
		}
	}
	return s
}

// #endregion replay
