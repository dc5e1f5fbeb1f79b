package integrate

import "github.com/danielpatrickdp/chandra/internal/psi"

// #region expected
// Expected is the Ψ signature a CHN level is expected to produce.
type Expected struct {
	Lambda float64 `json:"lambda"`
	Kappa  float64 `json:"kappa"`
	Theta  float64 `json:"theta"`
}

// #endregion expected

// #region boundary-status
// BoundaryStatus locates the field relative to the collapse boundary.
type BoundaryStatus string

const (
	AboveBoundary     BoundaryStatus = "ABOVE_BOUNDARY"
	BelowBoundary     BoundaryStatus = "BELOW_BOUNDARY"
	SupercriticalRisk BoundaryStatus = "SUPERCRITICAL_RISK"
)

// #endregion boundary-status

// #region config
// Config holds integration thresholds.
type Config struct {
	BoundaryThreshold   float64 // ε subtracted from R-τ
	PressureAdvisory    float64 // avg vulnerability above this triggers an advisory
	ScaffoldingMaxLevel int     // dominant levels at or below this trigger an advisory
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		BoundaryThreshold:   0.5,
		PressureAdvisory:    0.5,
		ScaffoldingMaxLevel: 3,
	}
}

// #endregion config

// #region input
// Input is everything the integrator reads: the discrete CHN verdict, the
// pressure summary and the Ψ conversation analysis.
type Input struct {
	DominantLevel        int
	AverageVulnerability float64
	Averages             psi.Averages
	Velocity             *psi.Velocity
	Safety               *psi.SafetyCheck
	Attractor            psi.Attractor
}

// #endregion input

// #region assessment
// Boundary is the collapse boundary verdict.
type Boundary struct {
	Status         BoundaryStatus `json:"status"`
	Distance       float64        `json:"boundary_distance"`
	VelocitySafe   bool           `json:"velocity_safe"`
	Interpretation string         `json:"interpretation"`
}

// Assessment is the integrated verdict.
type Assessment struct {
	TauProxy   float64  `json:"tau_CH_proxy"`
	Level      int      `json:"chn_level"`
	Expected   Expected `json:"expected_psi"`
	Alignment  float64  `json:"psi_chn_alignment"` // may be negative
	Boundary   Boundary `json:"collapse_boundary_status"`
	Advisories []string `json:"recommendations"`
}

// #endregion assessment
