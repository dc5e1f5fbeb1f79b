package analysis

import (
	"github.com/danielpatrickdp/chandra/internal/chn"
	"github.com/danielpatrickdp/chandra/internal/eval"
	"github.com/danielpatrickdp/chandra/internal/integrate"
	"github.com/danielpatrickdp/chandra/internal/pressure"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region health

// Health is the coarse overall verdict of a diagnostic.
type Health struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

const (
	HealthExcellent  = "Excellent - Operating at high autonomy with low vulnerability"
	HealthGood       = "Good - Stable relational operation with manageable risks"
	HealthModerate   = "Moderate - Functional but with notable limitations"
	HealthConcerning = "Concerning - Operating in survival/seeking modes with high vulnerability"
)

// #endregion health

// #region diagnostic

// Diagnostic is the discrete half of an analysis: CHN profile, symbolic
// pressure and overall health.
type Diagnostic struct {
	Profile  chn.Profile      `json:"chn_profile"`
	Pressure pressure.Summary `json:"symbolic_pressure"`
	Health   Health           `json:"overall_health"`
}

// #endregion diagnostic

// #region report

// Report is the full integrated analysis of one conversation.
type Report struct {
	Turns      int                  `json:"turns"`
	Psi        psi.Conversation     `json:"psi_field"`
	Diagnostic Diagnostic           `json:"chandra_diagnostics"`
	Assessment integrate.Assessment `json:"integrated_assessment"`
	Validation eval.EvalResult      `json:"validation"`
}

// #endregion report
