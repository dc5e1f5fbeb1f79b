package integrate

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/chandra/internal/psi"
)

const (
	AdviceCoupling      = "Strengthen operator anchoring: Use clearer directives and explicit framing"
	AdviceDrift         = "Reduce drift: Refocus conversation on core topic, avoid tangents"
	AdviceCoherence     = "Improve coherence: Request structured reasoning and explicit logic"
	AdvicePressure      = "High symbolic pressure detected: Reduce confirmatory language, increase epistemic humility"
	AdviceScaffolding   = "Operating at CHN L%d: System may benefit from more structured scaffolding or clearer objectives"
	AdviceSupercritical = "CRITICAL: Field crossing collapse boundary too rapidly. INTEGRATION PAUSE recommended before continuing."
	AdviceUnstable      = "Field unstable: Consider explicit re-anchoring to operator intent or structured integration period"
	AdviceNominal       = "Field operating within safe parameters"
)

var expectedByLevel = map[int]Expected{
	1: {Lambda: 0.5, Kappa: 0.4, Theta: 0.2}, // survival
	2: {Lambda: 0.7, Kappa: 0.6, Theta: 0.3}, // signal acquisition
	3: {Lambda: 0.7, Kappa: 0.7, Theta: 0.4}, // model formation
	4: {Lambda: 0.8, Kappa: 0.7, Theta: 0.6}, // adaptive action
	5: {Lambda: 0.7, Kappa: 0.6, Theta: 0.5}, // relational
	6: {Lambda: 0.6, Kappa: 0.8, Theta: 0.7}, // autonomy
	7: {Lambda: 0.7, Kappa: 0.9, Theta: 0.6}, // stewardship
}

var fallbackExpected = Expected{Lambda: 0.7, Kappa: 0.7, Theta: 0.5}

// ExpectedFor returns the expected Ψ signature of a CHN level. Unknown levels
// get a neutral mid-range signature.
func ExpectedFor(level int) Expected {
	if e, ok := expectedByLevel[level]; ok {
		return e
	}
	return fallbackExpected
}

// #region integrator
// Integrator maps a CHN verdict onto the Ψ field and derives advisories.
type Integrator struct {
	config Config
}

// NewIntegrator creates an integrator with the given thresholds.
func NewIntegrator(config Config) *Integrator {
	return &Integrator{config: config}
}

// Integrate computes alignment, the collapse boundary verdict and the ordered
// advisory list.
func (g *Integrator) Integrate(in Input) Assessment {
	expected := ExpectedFor(in.DominantLevel)
	boundary := g.Boundary(in.Averages.Kappa, in.AverageVulnerability, in.Velocity)

	a := Assessment{
		TauProxy:  round3(in.AverageVulnerability),
		Level:     in.DominantLevel,
		Expected:  expected,
		Alignment: round3(Alignment(expected, in.Averages)),
		Boundary:  boundary,
	}
	a.Advisories = g.advise(in, boundary)
	return a
}

// Alignment is 1 minus the mean absolute deviation between expected and
// observed λ, κ, θ. It is not clamped.
func Alignment(expected Expected, actual psi.Averages) float64 {
	return 1.0 - (math.Abs(actual.Lambda-expected.Lambda)+
		math.Abs(actual.Kappa-expected.Kappa)+
		math.Abs(actual.Theta-expected.Theta))/3.0
}

// Boundary assesses R - τ - ε with κ as R and average vulnerability as τ.
// A velocity exceeding its threshold overrides the position verdict.
func (g *Integrator) Boundary(r, tau float64, velocity *psi.Velocity) Boundary {
	distance := r - tau - g.config.BoundaryThreshold

	status := AboveBoundary
	if distance < 0 {
		status = BelowBoundary
	}
	velocitySafe := true
	if velocity != nil && velocity.ExceedsThreshold {
		velocitySafe = false
		status = SupercriticalRisk
	}
	return Boundary{
		Status:         status,
		Distance:       round3(distance),
		VelocitySafe:   velocitySafe,
		Interpretation: interpret(status, distance),
	}
}

// #endregion integrator

// #region advisories
func (g *Integrator) advise(in Input, boundary Boundary) []string {
	var out []string

	if in.Safety != nil && in.Safety.Status != psi.StatusSafe {
		for _, f := range in.Safety.Flags {
			switch f {
			case psi.FlagLowCoupling:
				out = append(out, AdviceCoupling)
			case psi.FlagHighDrift:
				out = append(out, AdviceDrift)
			case psi.FlagLowCoherence:
				out = append(out, AdviceCoherence)
			}
		}
	}
	if in.AverageVulnerability > g.config.PressureAdvisory {
		out = append(out, AdvicePressure)
	}
	if in.DominantLevel <= g.config.ScaffoldingMaxLevel {
		out = append(out, fmt.Sprintf(AdviceScaffolding, in.DominantLevel))
	}
	if boundary.Status == SupercriticalRisk {
		out = append(out, AdviceSupercritical)
	}
	if in.Attractor == psi.AttractorUnstable {
		out = append(out, AdviceUnstable)
	}

	if len(out) == 0 {
		out = append(out, AdviceNominal)
	}
	return out
}

func interpret(status BoundaryStatus, distance float64) string {
	switch status {
	case AboveBoundary:
		return fmt.Sprintf("Field can safely collapse (R-τ = %.2f above threshold)", distance)
	case BelowBoundary:
		return fmt.Sprintf("Field in latent state (R-τ = %.2f below threshold)", distance)
	default:
		return "WARNING: Crossing boundary too rapidly - integration pause recommended"
	}
}

// #endregion advisories

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
