// Package analysis composes CHN scoring, symbolic pressure, Ψ telemetry and
// integration into one pipeline.
package analysis

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/chandra/internal/chn"
	"github.com/danielpatrickdp/chandra/internal/eval"
	"github.com/danielpatrickdp/chandra/internal/integrate"
	"github.com/danielpatrickdp/chandra/internal/pressure"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region analyzer

// Analyzer runs the pipeline. It holds only immutable scorers and
// configuration and is safe for concurrent use; every Analyze call gets its
// own Ψ estimator.
type Analyzer struct {
	scorer     *chn.Scorer
	detector   *pressure.Detector
	psiConfig  psi.Config
	integrator *integrate.Integrator
	harness    *eval.EvalHarness
	logger     *zap.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithScorer replaces the default CHN scorer.
func WithScorer(s *chn.Scorer) Option {
	return func(a *Analyzer) { a.scorer = s }
}

// WithDetector replaces the default pressure detector.
func WithDetector(d *pressure.Detector) Option {
	return func(a *Analyzer) { a.detector = d }
}

// WithPsiConfig sets the Ψ thresholds used by every new estimator.
func WithPsiConfig(c psi.Config) Option {
	return func(a *Analyzer) { a.psiConfig = c }
}

// WithIntegrateConfig sets the integration thresholds.
func WithIntegrateConfig(c integrate.Config) Option {
	return func(a *Analyzer) { a.integrator = integrate.NewIntegrator(c) }
}

// New creates an Analyzer over the default pattern tables and thresholds.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		psiConfig:  psi.DefaultConfig(),
		integrator: integrate.NewIntegrator(integrate.DefaultConfig()),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scorer == nil {
		a.scorer = chn.DefaultScorer()
	}
	if a.detector == nil {
		a.detector = pressure.DefaultDetector()
	}
	evalConfig := eval.DefaultEvalConfig()
	evalConfig.HistoryCapacity = psi.NewHistory(a.psiConfig.HistoryCapacity).Cap()
	a.harness = eval.NewEvalHarness(evalConfig)
	return a
}

// PsiConfig returns the Ψ thresholds new estimators are created with.
func (a *Analyzer) PsiConfig() psi.Config { return a.psiConfig }

// #endregion analyzer

// #region diagnose

// Diagnose runs the discrete diagnostics on a transcript and the AI responses
// it contains. With no responses the pressure average is 0 and does not
// affect health.
func (a *Analyzer) Diagnose(transcript string, responses []string) Diagnostic {
	d, _ := a.diagnose(transcript, responses)
	return d
}

func (a *Analyzer) diagnose(transcript string, responses []string) (Diagnostic, chn.Profile) {
	profile := a.scorer.Score(transcript)
	summary := a.detector.Summarize(responses)
	return Diagnostic{
		Profile:  profile.Rounded(),
		Pressure: summary,
		Health:   OverallHealth(profile.Dominant.Level, summary.AverageVulnerability, len(responses) > 0),
	}, profile
}

// OverallHealth scales the dominant level by 1/7 and, when responses were
// scored, discounts it by half the average vulnerability.
func OverallHealth(dominantLevel int, avgVulnerability float64, scored bool) Health {
	score := float64(dominantLevel) / float64(chn.LevelCount)
	if scored {
		score *= 1 - avgVulnerability*0.5
	}

	label := HealthConcerning
	switch {
	case score > 0.8:
		label = HealthExcellent
	case score > 0.6:
		label = HealthGood
	case score > 0.4:
		label = HealthModerate
	}
	return Health{Score: round3(score), Label: label}
}

// #endregion diagnose

// #region analyze

// Analyze runs the full pipeline over one conversation. An empty transcript
// is rebuilt from the turns with Transcript.
func (a *Analyzer) Analyze(turns []psi.Turn, transcript string) Report {
	est := psi.NewEstimator(a.psiConfig)
	conv := est.AnalyzeConversation(turns)
	return a.report(turns, transcript, conv, est.History())
}

func (a *Analyzer) report(turns []psi.Turn, transcript string, conv psi.Conversation, history []psi.State) Report {
	if transcript == "" {
		transcript = Transcript(turns)
	}
	responses := make([]string, len(turns))
	for i, t := range turns {
		responses[i] = t.Response
	}

	diag, profile := a.diagnose(transcript, responses)
	assessment := a.integrator.Integrate(integrate.Input{
		DominantLevel:        profile.Dominant.Level,
		AverageVulnerability: diag.Pressure.AverageVulnerability,
		Averages:             conv.Averages,
		Velocity:             conv.Velocity,
		Safety:               conv.Safety,
		Attractor:            conv.Attractor,
	})
	validation := a.harness.Run(eval.EvalInput{
		Profile:    profile,
		Analyses:   diag.Pressure.Analyses,
		Trajectory: history,
		HistoryLen: len(history),
	})

	a.logger.Debug("analysis complete",
		zap.Int("turns", len(turns)),
		zap.Int("dominant_level", profile.Dominant.Level),
		zap.Float64("avg_vulnerability", diag.Pressure.AverageVulnerability),
		zap.String("boundary", string(assessment.Boundary.Status)),
		zap.String("attractor", string(conv.Attractor)),
	)
	if !validation.Passed {
		a.logger.Warn("analysis failed validation", zap.String("reason", validation.Reason))
	}

	return Report{
		Turns:      len(turns),
		Psi:        conv,
		Diagnostic: diag,
		Assessment: assessment,
		Validation: validation,
	}
}

// Transcript renders turns as alternating "User:" and "AI:" lines.
func Transcript(turns []psi.Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = fmt.Sprintf("User: %s\nAI: %s", t.Prompt, t.Response)
	}
	return strings.Join(lines, "\n")
}

// #endregion analyze

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
