package psi

import "math"

// #region config

// Config holds the telemetry thresholds.
type Config struct {
	EpsilonMax        float64 // drift at or above this flags HIGH_DRIFT
	CriticalEpsilon   float64 // flagged states with drift at or above this are CRITICAL
	MinCoupling       float64 // coupling below this flags LOW_COUPLING
	MinCoherence      float64 // coherence below this flags LOW_COHERENCE
	VelocityThreshold float64 // |velocity| above this exceeds the safe rate
	HistoryCapacity   int     // ring buffer size
}

// DefaultConfig returns the empirically fitted thresholds.
func DefaultConfig() Config {
	return Config{
		EpsilonMax:        0.32,
		CriticalEpsilon:   0.37,
		MinCoupling:       0.75,
		MinCoherence:      0.6,
		VelocityThreshold: 0.32,
		HistoryCapacity:   100,
	}
}

// #endregion config

// #region state

// State is the Ψ field reading for one turn. Every metric is in [0,1].
type State struct {
	Lambda  float64 `json:"lambda"`  // operator coupling
	Kappa   float64 `json:"kappa"`   // coherence
	Theta   float64 `json:"theta"`   // procedural autonomy
	Epsilon float64 `json:"epsilon"` // drift
	Turn    int     `json:"turn"`
}

// Rounded returns a copy with every metric rounded to 3 decimals.
func (s State) Rounded() State {
	return State{
		Lambda:  round3(s.Lambda),
		Kappa:   round3(s.Kappa),
		Theta:   round3(s.Theta),
		Epsilon: round3(s.Epsilon),
		Turn:    s.Turn,
	}
}

// Turn is one (prompt, response) exchange.
type Turn struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// Averages are the per-metric means over a trajectory.
type Averages struct {
	Lambda  float64 `json:"lambda"`
	Kappa   float64 `json:"kappa"`
	Theta   float64 `json:"theta"`
	Epsilon float64 `json:"epsilon"`
}

// #endregion state

// #region velocity

// Velocity is d(R-τ)/dt between the two most recent states, with κ standing
// in for R and 1-λ for τ.
type Velocity struct {
	Value            float64 `json:"velocity"`
	DeltaR           float64 `json:"delta_r"`
	DeltaTau         float64 `json:"delta_tau"`
	SafeThreshold    float64 `json:"safe_threshold"`
	ExceedsThreshold bool    `json:"exceeds_threshold"`
}

// #endregion velocity

// #region safety

// Flag names a single safety issue.
type Flag string

const (
	FlagLowCoupling  Flag = "LOW_COUPLING"
	FlagHighDrift    Flag = "HIGH_DRIFT"
	FlagLowCoherence Flag = "LOW_COHERENCE"
)

// Status is the overall safety verdict for one state.
type Status string

const (
	StatusSafe     Status = "SAFE"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// SafetyCheck is the verdict for one state.
type SafetyCheck struct {
	Status       Status   `json:"status"`
	Flags        []Flag   `json:"flags"`
	Issues       []string `json:"issues"`
	WithinBounds bool     `json:"within_bounds"`
}

// #endregion safety

// #region attractor

// Attractor labels the regime a trajectory is stabilizing toward.
type Attractor string

const (
	AttractorOperatorAnchored  Attractor = "OPERATOR_ANCHORED"
	AttractorCoherenceAnchored Attractor = "COHERENCE_ANCHORED"
	AttractorUnstable          Attractor = "UNSTABLE"
	AttractorTransitional      Attractor = "TRANSITIONAL"
)

// Description returns the long-form label.
func (a Attractor) Description() string {
	switch a {
	case AttractorOperatorAnchored:
		return "OPERATOR_ANCHORED (Human intent dominant)"
	case AttractorCoherenceAnchored:
		return "COHERENCE_ANCHORED (Emergent global coherence)"
	case AttractorUnstable:
		return "UNSTABLE (High drift - integration pause recommended)"
	default:
		return "TRANSITIONAL (Between attractors)"
	}
}

// #endregion attractor

// #region conversation

// Conversation is the Ψ analysis of a whole exchange.
type Conversation struct {
	Trajectory []State      `json:"trajectory"`
	Current    *State       `json:"current_state"`
	Averages   Averages     `json:"averages"`
	Velocity   *Velocity    `json:"field_velocity"`
	Safety     *SafetyCheck `json:"safety_assessment"`
	Attractor  Attractor    `json:"attractor_state"`
}

// #endregion conversation

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
