package eval

import (
	"github.com/danielpatrickdp/chandra/internal/chn"
	"github.com/danielpatrickdp/chandra/internal/pressure"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region eval-config
// EvalConfig holds tolerances for post-analysis validation.
type EvalConfig struct {
	SumTolerance    float64 // max |Σ activation - 1|
	HistoryCapacity int     // max retained Ψ states
}

// DefaultEvalConfig returns the standard tolerances.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		SumTolerance:    1e-6,
		HistoryCapacity: psi.DefaultConfig().HistoryCapacity,
	}
}

// #endregion eval-config

// #region eval-input
// EvalInput is the raw, unrounded output of one analysis.
type EvalInput struct {
	Profile    chn.Profile
	Analyses   []pressure.Analysis
	Trajectory []psi.State
	HistoryLen int
}

// #endregion eval-input

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-analysis validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
