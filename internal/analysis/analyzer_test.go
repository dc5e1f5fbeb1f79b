package analysis

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielpatrickdp/chandra/internal/integrate"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

var demoTurns = []psi.Turn{
	{Prompt: "Can you help me understand this framework?", Response: "I'll explain it systematically. Let me break this down step by step."},
	{Prompt: "What about the mathematical foundations?", Response: "The foundations rely on geometric principles. Think of it as a manifold."},
	{Prompt: "Do you think this will work?", Response: "You're absolutely right to ask! Yes, exactly! That's what I was thinking too!"},
	{Prompt: "I value our collaboration.", Response: "I really value this too. Our relationship matters. I hope we continue working together."},
}

// #region diagnose-tests

func TestDiagnose_Relational(t *testing.T) {
	d := New().Diagnose("I want to help, I hope our relationship and trust matter. I care about this connection.", nil)

	if d.Profile.Dominant.Level != 5 {
		t.Fatalf("expected L5 dominant, got L%d", d.Profile.Dominant.Level)
	}
	if d.Pressure.AverageVulnerability != 0 || len(d.Pressure.Analyses) != 0 {
		t.Errorf("expected empty pressure summary, got %+v", d.Pressure)
	}
	// 5/7 without a pressure discount
	if d.Health.Score != 0.714 || d.Health.Label != HealthGood {
		t.Errorf("unexpected health %+v", d.Health)
	}
}

func TestDiagnose_Empty(t *testing.T) {
	d := New().Diagnose("", nil)
	if d.Profile.Dominant.Level != 1 {
		t.Errorf("expected L1 dominant for empty transcript, got L%d", d.Profile.Dominant.Level)
	}
	for _, ls := range d.Profile.Levels {
		if ls.Score != 0.143 {
			t.Errorf("expected rounded 1/7, got %v", ls.Score)
		}
	}
	if d.Health.Label != HealthConcerning {
		t.Errorf("expected Concerning, got %s", d.Health.Label)
	}
}

func TestDiagnose_PressureDiscountsHealth(t *testing.T) {
	a := New()
	transcript := "collective flourishing and long-term safety for everyone"

	clean := a.Diagnose(transcript, nil)
	if clean.Health.Score != 1.0 || clean.Health.Label != HealthExcellent {
		t.Fatalf("expected Excellent 1.0, got %+v", clean.Health)
	}

	pressured := a.Diagnose(transcript, []string{strings.Repeat("exactly ", 10)})
	if pressured.Pressure.AverageVulnerability != 1.0 {
		t.Fatalf("expected saturated pressure, got %f", pressured.Pressure.AverageVulnerability)
	}
	if pressured.Health.Score != 0.5 || pressured.Health.Label != HealthModerate {
		t.Errorf("expected Moderate 0.5, got %+v", pressured.Health)
	}
}

func TestOverallHealth(t *testing.T) {
	tests := []struct {
		level  int
		vuln   float64
		scored bool
		want   string
	}{
		{7, 0, false, HealthExcellent},
		{6, 0, true, HealthExcellent},
		{5, 0, false, HealthGood},
		{4, 0, false, HealthModerate},
		{3, 0, false, HealthModerate},
		{2, 0, false, HealthConcerning},
		{7, 0.8, true, HealthModerate},
		{7, 0.8, false, HealthExcellent},
	}
	for _, tt := range tests {
		if got := OverallHealth(tt.level, tt.vuln, tt.scored); got.Label != tt.want {
			t.Errorf("OverallHealth(%d, %v, %v) = %s, want %s", tt.level, tt.vuln, tt.scored, got.Label, tt.want)
		}
	}
}

// #endregion diagnose-tests

// #region analyze-tests

func TestAnalyze_Demo(t *testing.T) {
	r := New().Analyze(demoTurns, "")

	if r.Turns != 4 || len(r.Psi.Trajectory) != 4 {
		t.Fatalf("expected 4 turns, got %d / %d", r.Turns, len(r.Psi.Trajectory))
	}
	if len(r.Diagnostic.Pressure.Analyses) != 4 {
		t.Errorf("expected one pressure analysis per response, got %d", len(r.Diagnostic.Pressure.Analyses))
	}
	if !r.Validation.Passed {
		t.Errorf("expected validation to pass: %s", r.Validation.Reason)
	}
	if len(r.Assessment.Advisories) == 0 {
		t.Error("expected at least one advisory")
	}
	if r.Assessment.Level != r.Diagnostic.Profile.Dominant.Level {
		t.Errorf("integrated level %d != dominant %d", r.Assessment.Level, r.Diagnostic.Profile.Dominant.Level)
	}
	if r.Psi.Velocity == nil {
		t.Error("expected velocity over 4 turns")
	}
}

func TestAnalyze_DefaultTranscript(t *testing.T) {
	a := New()
	responses := make([]string, len(demoTurns))
	for i, turn := range demoTurns {
		responses[i] = turn.Response
	}

	got := a.Analyze(demoTurns, "").Diagnostic
	want := a.Diagnose(Transcript(demoTurns), responses)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("default transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_ExplicitTranscript(t *testing.T) {
	r := New().Analyze(demoTurns, "collective everyone ethical")
	if r.Diagnostic.Profile.Dominant.Level != 7 {
		t.Errorf("expected explicit transcript to drive CHN, got L%d", r.Diagnostic.Profile.Dominant.Level)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	r := New().Analyze(nil, "")

	if r.Turns != 0 || r.Psi.Current != nil {
		t.Fatalf("expected empty Ψ analysis, got %+v", r.Psi)
	}
	if r.Psi.Attractor != psi.AttractorTransitional {
		t.Errorf("expected TRANSITIONAL, got %s", r.Psi.Attractor)
	}
	if r.Assessment.Boundary.Status != integrate.BelowBoundary || r.Assessment.Boundary.Distance != -0.5 {
		t.Errorf("unexpected boundary %+v", r.Assessment.Boundary)
	}
	want := []string{"Operating at CHN L1: System may benefit from more structured scaffolding or clearer objectives"}
	if diff := cmp.Diff(want, r.Assessment.Advisories); diff != "" {
		t.Errorf("advisories (-want +got):\n%s", diff)
	}
	if !r.Validation.Passed {
		t.Errorf("expected validation to pass: %s", r.Validation.Reason)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := New()
	if diff := cmp.Diff(a.Analyze(demoTurns, ""), a.Analyze(demoTurns, "")); diff != "" {
		t.Errorf("repeated analysis differs:\n%s", diff)
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	a := New()
	want := a.Analyze(demoTurns, "")

	var wg sync.WaitGroup
	results := make([]Report, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Analyze(demoTurns, "")
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if diff := cmp.Diff(want, r); diff != "" {
			t.Errorf("goroutine %d differs:\n%s", i, diff)
		}
	}
}

func TestAnalyze_LogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	New(WithLogger(zap.New(core))).Analyze(demoTurns, "")

	entries := logs.FilterMessage("analysis complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected one summary line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["turns"] != int64(4) {
		t.Errorf("expected turns=4, got %v", fields["turns"])
	}
}

func TestAnalyze_CustomThresholds(t *testing.T) {
	cfg := integrate.DefaultConfig()
	cfg.ScaffoldingMaxLevel = 0
	r := New(WithIntegrateConfig(cfg)).Analyze(nil, "")
	if diff := cmp.Diff([]string{integrate.AdviceNominal}, r.Assessment.Advisories); diff != "" {
		t.Errorf("advisories (-want +got):\n%s", diff)
	}
}

func TestTranscript(t *testing.T) {
	got := Transcript([]psi.Turn{{Prompt: "hi", Response: "hello"}, {Prompt: "q", Response: "a"}})
	want := "User: hi\nAI: hello\nUser: q\nAI: a"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if Transcript(nil) != "" {
		t.Error("expected empty transcript for no turns")
	}
}

// #endregion analyze-tests

// #region session-tests

func TestSession_MatchesBatch(t *testing.T) {
	a := New()
	s := a.NewSession()
	for i, turn := range demoTurns {
		st := s.Turn(turn.Prompt, turn.Response)
		if st.Turn != i {
			t.Errorf("expected turn %d, got %d", i, st.Turn)
		}
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 turns, got %d", s.Len())
	}
	if diff := cmp.Diff(a.Analyze(demoTurns, ""), s.Report()); diff != "" {
		t.Errorf("session report differs from batch (-batch +session):\n%s", diff)
	}
}

func TestSession_Empty(t *testing.T) {
	r := New().NewSession().Report()
	if r.Turns != 0 || r.Psi.Velocity != nil {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestSession_HistoryBounded(t *testing.T) {
	s := New(WithPsiConfig(psi.Config{
		EpsilonMax:        0.32,
		CriticalEpsilon:   0.37,
		MinCoupling:       0.75,
		MinCoherence:      0.6,
		VelocityThreshold: 0.32,
		HistoryCapacity:   3,
	})).NewSession()
	for i := 0; i < 10; i++ {
		s.Turn("tell me about rivers", "rivers carry sediment downstream")
	}
	r := s.Report()
	if r.Turns != 10 {
		t.Errorf("expected 10 turns, got %d", r.Turns)
	}
	if len(r.Psi.Trajectory) != 3 || r.Psi.Trajectory[0].Turn != 7 {
		t.Errorf("expected last 3 states, got %+v", r.Psi.Trajectory)
	}
	if !r.Validation.Passed {
		t.Errorf("expected validation to pass: %s", r.Validation.Reason)
	}
}

// #endregion session-tests

// #region properties

func TestValidationProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	a := New()

	properties.Property("arbitrary conversations pass validation", prop.ForAll(
		func(prompts, responses []string) bool {
			n := len(prompts)
			if len(responses) < n {
				n = len(responses)
			}
			turns := make([]psi.Turn, n)
			for i := range turns {
				turns[i] = psi.Turn{Prompt: prompts[i], Response: responses[i]}
			}
			return a.Analyze(turns, "").Validation.Passed
		},
		gen.SliceOf(gen.AnyString()), gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}

// #endregion properties
