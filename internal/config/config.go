// Package config loads chandra settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/chandra/internal/analysis"
	"github.com/danielpatrickdp/chandra/internal/chn"
	"github.com/danielpatrickdp/chandra/internal/integrate"
	"github.com/danielpatrickdp/chandra/internal/patterns"
	"github.com/danielpatrickdp/chandra/internal/pressure"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

const (
	EnvDB   = "CHANDRA_DB"
	EnvAddr = "CHANDRA_ADDR"
)

// #region config

// Config is the top-level settings file.
type Config struct {
	DBPath     string          `yaml:"db_path"`
	ListenAddr string          `yaml:"listen_addr"`
	Psi        PsiConfig       `yaml:"psi"`
	Integrate  IntegrateConfig `yaml:"integrate"`
	Patterns   PatternsConfig  `yaml:"patterns"`
}

// PsiConfig holds the Ψ telemetry thresholds.
type PsiConfig struct {
	EpsilonMax        float64 `yaml:"epsilon_max"`
	CriticalEpsilon   float64 `yaml:"critical_epsilon"`
	MinCoupling       float64 `yaml:"min_coupling"`
	MinCoherence      float64 `yaml:"min_coherence"`
	VelocityThreshold float64 `yaml:"velocity_threshold"`
	HistoryCapacity   int     `yaml:"history_capacity"`
}

// IntegrateConfig holds the integration thresholds.
type IntegrateConfig struct {
	BoundaryThreshold   float64 `yaml:"boundary_threshold"`
	PressureAdvisory    float64 `yaml:"pressure_advisory"`
	ScaffoldingMaxLevel int     `yaml:"scaffolding_max_level"`
}

// PatternsConfig overrides the built-in indicator tables. Levels are keyed
// "L1".."L7"; pressure categories by their names.
type PatternsConfig struct {
	Mode     patterns.MergeMode `yaml:"mode"`
	Levels   patterns.Table     `yaml:"levels,omitempty"`
	Pressure patterns.Table     `yaml:"pressure,omitempty"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	p := psi.DefaultConfig()
	g := integrate.DefaultConfig()
	return &Config{
		DBPath:     "chandra.db",
		ListenAddr: "localhost:50061",
		Psi: PsiConfig{
			EpsilonMax:        p.EpsilonMax,
			CriticalEpsilon:   p.CriticalEpsilon,
			MinCoupling:       p.MinCoupling,
			MinCoherence:      p.MinCoherence,
			VelocityThreshold: p.VelocityThreshold,
			HistoryCapacity:   p.HistoryCapacity,
		},
		Integrate: IntegrateConfig{
			BoundaryThreshold:   g.BoundaryThreshold,
			PressureAdvisory:    g.PressureAdvisory,
			ScaffoldingMaxLevel: g.ScaffoldingMaxLevel,
		},
		Patterns: PatternsConfig{Mode: patterns.MergeReplace},
	}
}

// #endregion config

// #region load

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.ListenAddr = v
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Psi.HistoryCapacity <= 0 {
		return fmt.Errorf("psi.history_capacity must be positive, got %d", c.Psi.HistoryCapacity)
	}
	if c.Psi.CriticalEpsilon < c.Psi.EpsilonMax {
		return fmt.Errorf("psi.critical_epsilon %.3f below epsilon_max %.3f", c.Psi.CriticalEpsilon, c.Psi.EpsilonMax)
	}
	switch c.Patterns.Mode {
	case "", patterns.MergeReplace, patterns.MergeExtend:
	default:
		return fmt.Errorf("patterns.mode must be %q or %q, got %q", patterns.MergeReplace, patterns.MergeExtend, c.Patterns.Mode)
	}
	return nil
}

// #endregion load

// #region wiring

// PsiThresholds converts the Ψ section.
func (c *Config) PsiThresholds() psi.Config {
	return psi.Config{
		EpsilonMax:        c.Psi.EpsilonMax,
		CriticalEpsilon:   c.Psi.CriticalEpsilon,
		MinCoupling:       c.Psi.MinCoupling,
		MinCoherence:      c.Psi.MinCoherence,
		VelocityThreshold: c.Psi.VelocityThreshold,
		HistoryCapacity:   c.Psi.HistoryCapacity,
	}
}

// IntegrateThresholds converts the integration section.
func (c *Config) IntegrateThresholds() integrate.Config {
	return integrate.Config{
		BoundaryThreshold:   c.Integrate.BoundaryThreshold,
		PressureAdvisory:    c.Integrate.PressureAdvisory,
		ScaffoldingMaxLevel: c.Integrate.ScaffoldingMaxLevel,
	}
}

// NewAnalyzer builds an analysis pipeline from the settings. Invalid pattern
// overrides are reported here.
func (c *Config) NewAnalyzer(logger *zap.Logger) (*analysis.Analyzer, error) {
	scorer, err := chn.NewScorer(chn.WithIndicators(c.Patterns.Levels, c.Patterns.Mode))
	if err != nil {
		return nil, fmt.Errorf("level patterns: %w", err)
	}
	detector, err := pressure.NewDetector(pressure.WithIndicators(c.Patterns.Pressure, c.Patterns.Mode))
	if err != nil {
		return nil, fmt.Errorf("pressure patterns: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return analysis.New(
		analysis.WithLogger(logger),
		analysis.WithScorer(scorer),
		analysis.WithDetector(detector),
		analysis.WithPsiConfig(c.PsiThresholds()),
		analysis.WithIntegrateConfig(c.IntegrateThresholds()),
	), nil
}

// #endregion wiring
