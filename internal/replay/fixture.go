package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/chandra/internal/integrate"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase mirrors Case with JSON tags.
type FixtureCase struct {
	Name       string          `json:"name"`
	Turns      []psi.Turn      `json:"turns"`
	Transcript string          `json:"transcript,omitempty"`
	Expected   FixtureExpected `json:"expected"`
}

// FixtureExpected mirrors Expectation with JSON tags.
type FixtureExpected struct {
	DominantLevel  int    `json:"dominant_level,omitempty"`
	BoundaryStatus string `json:"boundary_status,omitempty"`
	Attractor      string `json:"attractor,omitempty"`
	AdvisoryCount  *int   `json:"advisory_count,omitempty"`
}

// FixtureConfig overrides thresholds; absent sections keep the defaults.
type FixtureConfig struct {
	Psi       *FixturePsiConfig       `json:"psi,omitempty"`
	Integrate *FixtureIntegrateConfig `json:"integrate,omitempty"`
}

// FixturePsiConfig mirrors psi.Config with JSON tags. Absent fields keep
// their defaults.
type FixturePsiConfig struct {
	EpsilonMax        *float64 `json:"epsilon_max,omitempty"`
	CriticalEpsilon   *float64 `json:"critical_epsilon,omitempty"`
	MinCoupling       *float64 `json:"min_coupling,omitempty"`
	MinCoherence      *float64 `json:"min_coherence,omitempty"`
	VelocityThreshold *float64 `json:"velocity_threshold,omitempty"`
	HistoryCapacity   *int     `json:"history_capacity,omitempty"`
}

// FixtureIntegrateConfig mirrors integrate.Config with JSON tags. Absent
// fields keep their defaults.
type FixtureIntegrateConfig struct {
	BoundaryThreshold   *float64 `json:"boundary_threshold,omitempty"`
	PressureAdvisory    *float64 `json:"pressure_advisory,omitempty"`
	ScaffoldingMaxLevel *int     `json:"scaffolding_max_level,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{
		Name:       fc.Name,
		Turns:      fc.Turns,
		Transcript: fc.Transcript,
		Expected: Expectation{
			DominantLevel:  fc.Expected.DominantLevel,
			BoundaryStatus: integrate.BoundaryStatus(fc.Expected.BoundaryStatus),
			Attractor:      psi.Attractor(fc.Expected.Attractor),
			AdvisoryCount:  fc.Expected.AdvisoryCount,
		},
	}
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	out := make([]Case, len(f.Cases))
	for i := range f.Cases {
		out[i] = f.Cases[i].ToCase()
	}
	return out
}

// ToReplayConfig overlays the supplied thresholds on DefaultReplayConfig
// and validates the result.
func (fc *FixtureConfig) ToReplayConfig() (ReplayConfig, error) {
	config := DefaultReplayConfig()
	if p := fc.Psi; p != nil {
		setFloat(&config.PsiConfig.EpsilonMax, p.EpsilonMax)
		setFloat(&config.PsiConfig.CriticalEpsilon, p.CriticalEpsilon)
		setFloat(&config.PsiConfig.MinCoupling, p.MinCoupling)
		setFloat(&config.PsiConfig.MinCoherence, p.MinCoherence)
		setFloat(&config.PsiConfig.VelocityThreshold, p.VelocityThreshold)
		setInt(&config.PsiConfig.HistoryCapacity, p.HistoryCapacity)
	}
	if g := fc.Integrate; g != nil {
		setFloat(&config.IntegrateConfig.BoundaryThreshold, g.BoundaryThreshold)
		setFloat(&config.IntegrateConfig.PressureAdvisory, g.PressureAdvisory)
		setInt(&config.IntegrateConfig.ScaffoldingMaxLevel, g.ScaffoldingMaxLevel)
	}
	if err := config.Validate(); err != nil {
		return ReplayConfig{}, fmt.Errorf("fixture config: %w", err)
	}
	return config, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// #endregion fixture-loader
