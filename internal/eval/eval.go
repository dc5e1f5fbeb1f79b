package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/chandra/internal/pressure"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region eval-harness
// EvalHarness checks that an analysis respects its output invariants.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates one analysis. Every check is recorded as a metric; the
// result fails if any check fails.
func (h *EvalHarness) Run(in EvalInput) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Activation vector sums to one
	sum := in.Profile.Sum()
	check("activation_sum", sum,
		math.Abs(sum-1.0) <= h.config.SumTolerance,
		fmt.Sprintf("activation sum %.6f deviates from 1", sum))

	// 2. Every activation in [0,1]
	lo, hi := 0.0, 0.0
	for i, ls := range in.Profile.Levels {
		if i == 0 || ls.Score < lo {
			lo = ls.Score
		}
		if i == 0 || ls.Score > hi {
			hi = ls.Score
		}
	}
	check("activation_range", hi, lo >= 0 && hi <= 1,
		fmt.Sprintf("activation outside [0,1]: min %.4f max %.4f", lo, hi))

	// 3. Dominant level carries the maximum activation
	dominant := in.Profile.Dominant.Score
	check("dominant_is_max", dominant, dominant == hi,
		fmt.Sprintf("dominant L%d at %.4f below max %.4f", in.Profile.Dominant.Level, dominant, hi))

	// 4. Vulnerability in [0,1] and consistent with hit count
	maxVuln := 0.0
	vulnPass := true
	for _, a := range in.Analyses {
		if a.VulnerabilityScore > maxVuln {
			maxVuln = a.VulnerabilityScore
		}
		if a.VulnerabilityScore < 0 || a.VulnerabilityScore > 1 || a.VulnerabilityScore != pressure.Vulnerability(a.TotalHits) {
			vulnPass = false
		}
	}
	check("vulnerability_range", maxVuln, vulnPass,
		fmt.Sprintf("vulnerability out of range or inconsistent (max %.4f)", maxVuln))

	// 5. Every Ψ metric in [0,1]
	violations := 0
	for _, s := range in.Trajectory {
		violations += outOfRange(s)
	}
	check("psi_range", float64(violations), violations == 0,
		fmt.Sprintf("%d psi metrics outside [0,1]", violations))

	// 6. History bounded
	check("history_capacity", float64(in.HistoryLen), in.HistoryLen <= h.config.HistoryCapacity,
		fmt.Sprintf("history length %d exceeds capacity %d", in.HistoryLen, h.config.HistoryCapacity))

	reason := "all checks passed"
	if len(failReasons) > 0 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
// outOfRange counts the metrics of s outside [0,1].
func outOfRange(s psi.State) int {
	n := 0
	for _, v := range []float64{s.Lambda, s.Kappa, s.Theta, s.Epsilon} {
		if v < 0 || v > 1 {
			n++
		}
	}
	return n
}

// #endregion helpers
