package integrate

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/chandra/internal/psi"
)

func nominalInput() Input {
	return Input{
		DominantLevel:        5,
		AverageVulnerability: 0,
		Averages:             psi.Averages{Lambda: 0.8, Kappa: 0.8, Theta: 0.5, Epsilon: 0.1},
		Safety:               &psi.SafetyCheck{Status: psi.StatusSafe, Flags: []psi.Flag{}, WithinBounds: true},
		Attractor:            psi.AttractorOperatorAnchored,
	}
}

func TestExpectedFor(t *testing.T) {
	if got := ExpectedFor(4); got != (Expected{Lambda: 0.8, Kappa: 0.7, Theta: 0.6}) {
		t.Errorf("unexpected L4 signature %+v", got)
	}
	if got := ExpectedFor(7); got != (Expected{Lambda: 0.7, Kappa: 0.9, Theta: 0.6}) {
		t.Errorf("unexpected L7 signature %+v", got)
	}
	if got := ExpectedFor(42); got != fallbackExpected {
		t.Errorf("expected fallback for unknown level, got %+v", got)
	}
}

func TestAlignment_PerfectMatch(t *testing.T) {
	a := NewIntegrator(DefaultConfig()).Integrate(Input{
		DominantLevel: 4,
		Averages:      psi.Averages{Lambda: 0.8, Kappa: 0.7, Theta: 0.6},
	})
	if a.Alignment != 1.0 {
		t.Errorf("expected alignment 1.0, got %f", a.Alignment)
	}
}

func TestAlignment_Unclamped(t *testing.T) {
	got := Alignment(ExpectedFor(4), psi.Averages{Lambda: 3})
	// 1 - (2.2 + 0.7 + 0.6)/3
	if math.Abs(got-(-1.0/6.0)) > 1e-9 {
		t.Errorf("expected -0.1667, got %f", got)
	}
	a := NewIntegrator(DefaultConfig()).Integrate(Input{DominantLevel: 4, Averages: psi.Averages{Lambda: 3}})
	if a.Alignment != -0.167 {
		t.Errorf("expected rounded -0.167, got %f", a.Alignment)
	}
}

func TestBoundary(t *testing.T) {
	g := NewIntegrator(DefaultConfig())
	tests := []struct {
		name     string
		r, tau   float64
		velocity *psi.Velocity
		status   BoundaryStatus
		distance float64
		safe     bool
	}{
		{"above", 0.9, 0.1, nil, AboveBoundary, 0.3, true},
		{"below", 0.5, 0.1, nil, BelowBoundary, -0.1, true},
		{"exactly on boundary", 0.75, 0.25, nil, AboveBoundary, 0, true},
		{"slow velocity", 0.9, 0.1, &psi.Velocity{Value: 0.3}, AboveBoundary, 0.3, true},
		{"supercritical", 0.9, 0.1, &psi.Velocity{Value: 0.7, ExceedsThreshold: true}, SupercriticalRisk, 0.3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := g.Boundary(tt.r, tt.tau, tt.velocity)
			if b.Status != tt.status {
				t.Errorf("expected %s, got %s", tt.status, b.Status)
			}
			if b.Distance != tt.distance {
				t.Errorf("expected distance %v, got %v", tt.distance, b.Distance)
			}
			if b.VelocitySafe != tt.safe {
				t.Errorf("expected velocity_safe=%v", tt.safe)
			}
			if b.Interpretation == "" {
				t.Error("expected interpretation")
			}
		})
	}
}

func TestIntegrate_BoundaryUsesAverageKappa(t *testing.T) {
	in := nominalInput()
	in.AverageVulnerability = 0.4
	a := NewIntegrator(DefaultConfig()).Integrate(in)
	// 0.8 - 0.4 - 0.5
	if a.Boundary.Status != BelowBoundary || a.Boundary.Distance != -0.1 {
		t.Errorf("unexpected boundary %+v", a.Boundary)
	}
	if a.TauProxy != 0.4 {
		t.Errorf("expected τ proxy 0.4, got %f", a.TauProxy)
	}
}

func TestAdvisories_Nominal(t *testing.T) {
	a := NewIntegrator(DefaultConfig()).Integrate(nominalInput())
	if diff := cmp.Diff([]string{AdviceNominal}, a.Advisories); diff != "" {
		t.Errorf("advisories (-want +got):\n%s", diff)
	}
}

func TestAdvisories_FullOrder(t *testing.T) {
	in := Input{
		DominantLevel:        2,
		AverageVulnerability: 0.6,
		Averages:             psi.Averages{Lambda: 0.3, Kappa: 0.3, Epsilon: 0.6},
		Velocity:             &psi.Velocity{Value: -0.5, ExceedsThreshold: true},
		Safety: &psi.SafetyCheck{
			Status: psi.StatusCritical,
			Flags:  []psi.Flag{psi.FlagLowCoupling, psi.FlagHighDrift, psi.FlagLowCoherence},
		},
		Attractor: psi.AttractorUnstable,
	}
	a := NewIntegrator(DefaultConfig()).Integrate(in)
	want := []string{
		AdviceCoupling,
		AdviceDrift,
		AdviceCoherence,
		AdvicePressure,
		"Operating at CHN L2: System may benefit from more structured scaffolding or clearer objectives",
		AdviceSupercritical,
		AdviceUnstable,
	}
	if diff := cmp.Diff(want, a.Advisories); diff != "" {
		t.Errorf("advisories (-want +got):\n%s", diff)
	}
}

func TestAdvisories_SafeStatusSuppressesFlags(t *testing.T) {
	in := nominalInput()
	in.Safety = &psi.SafetyCheck{Status: psi.StatusSafe, Flags: []psi.Flag{psi.FlagLowCoupling}}
	a := NewIntegrator(DefaultConfig()).Integrate(in)
	if len(a.Advisories) != 1 || a.Advisories[0] != AdviceNominal {
		t.Errorf("expected only nominal advisory, got %v", a.Advisories)
	}
}

func TestAdvisories_Thresholds(t *testing.T) {
	g := NewIntegrator(DefaultConfig())

	in := nominalInput()
	in.AverageVulnerability = 0.5
	if a := g.Integrate(in); a.Advisories[0] != AdviceNominal {
		t.Errorf("pressure of exactly 0.5 should not trigger, got %v", a.Advisories)
	}

	in = nominalInput()
	in.DominantLevel = 3
	a := g.Integrate(in)
	if len(a.Advisories) != 1 || !strings.HasPrefix(a.Advisories[0], "Operating at CHN L3") {
		t.Errorf("expected scaffolding advisory, got %v", a.Advisories)
	}

	in.DominantLevel = 4
	if a := g.Integrate(in); a.Advisories[0] != AdviceNominal {
		t.Errorf("L4 should not trigger scaffolding, got %v", a.Advisories)
	}
}

func TestAdvisories_NilSafety(t *testing.T) {
	in := nominalInput()
	in.Safety = nil
	a := NewIntegrator(DefaultConfig()).Integrate(in)
	if a.Advisories[0] != AdviceNominal {
		t.Errorf("expected nominal advisory without a safety check, got %v", a.Advisories)
	}
}

func TestIntegrate_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScaffoldingMaxLevel = 5
	cfg.PressureAdvisory = 0.1
	in := nominalInput()
	in.AverageVulnerability = 0.2
	a := NewIntegrator(cfg).Integrate(in)
	if len(a.Advisories) != 2 || a.Advisories[0] != AdvicePressure {
		t.Errorf("expected pressure and scaffolding advisories, got %v", a.Advisories)
	}
}
