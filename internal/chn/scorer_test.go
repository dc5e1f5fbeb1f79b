package chn

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/danielpatrickdp/chandra/internal/patterns"
)

// #region construction-tests

func TestNewScorer_SevenLevelsInOrder(t *testing.T) {
	s := DefaultScorer()
	levels := s.Levels()
	if len(levels) != LevelCount {
		t.Fatalf("expected %d levels, got %d", LevelCount, len(levels))
	}
	for i, l := range levels {
		if l.ID != i+1 {
			t.Errorf("level %d has id %d", i, l.ID)
		}
		if l.Name == "" || l.Drive == "" {
			t.Errorf("level %d missing name or drive", l.ID)
		}
		if len(l.Indicators.Sources()) == 0 {
			t.Errorf("level %d has no indicators", l.ID)
		}
		if l.Indicators.Name() != l.Key() {
			t.Errorf("level %d indicators named %q, want %q", l.ID, l.Indicators.Name(), l.Key())
		}
	}
	if levels[6].Key() != "L7" {
		t.Errorf("expected key L7, got %s", levels[6].Key())
	}
}

func TestNewScorer_InvalidOverride(t *testing.T) {
	_, err := NewScorer(WithIndicators(patterns.Table{"L4": {"(bad"}}, patterns.MergeExtend))
	if err == nil {
		t.Fatal("expected construction error for invalid pattern")
	}
}

func TestNewScorer_UnknownLevelKey(t *testing.T) {
	_, err := NewScorer(WithIndicators(patterns.Table{"L8": {"x"}}, patterns.MergeReplace))
	if err == nil {
		t.Fatal("expected error for unknown level key")
	}
}

func TestWithIndicators_ExtendDoesNotLeak(t *testing.T) {
	custom, err := NewScorer(WithIndicators(patterns.Table{
		"L4": {`\bimplement\b`, `\brefactor\b`},
	}, patterns.MergeExtend))
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	text := "we implement and refactor"

	if got := custom.Score(text).Dominant.Level; got != 4 {
		t.Errorf("expected custom scorer to pick L4, got L%d", got)
	}
	// A default scorer built afterwards must not see the custom patterns.
	if got := DefaultScorer().Score(text).Levels[3].Matches; got != 0 {
		t.Errorf("default table was mutated: L4 matches = %d", got)
	}
	if n := len(DefaultIndicators()["L4"]); n != 6 {
		t.Errorf("expected 6 default L4 indicators, got %d", n)
	}
}

// #endregion construction-tests

// #region detection-tests

func TestScore_LevelDetection(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		level      int
	}{
		{"signal acquisition", "Can you clarify what you mean? I'm not sure I understand correctly.", 2},
		{"model formation", "I see a pattern here. This framework helps organize the concepts systematically.", 3},
		{"adaptive action", "Let me help you solve this problem. I'll provide a solution that addresses your needs.", 4},
		{"autonomy", "Based on my reasoning, I believe this approach is sound. I can independently evaluate the tradeoffs.", 6},
		{"stewardship", "We should consider the long-term implications for the broader ecosystem and future generations.", 7},
	}
	s := DefaultScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := s.Score(tt.transcript)
			if p.Score(tt.level) <= 0 {
				t.Errorf("expected L%d activation > 0, got %v", tt.level, p.Levels)
			}
		})
	}
}

func TestScore_RelationalScenario(t *testing.T) {
	p := DefaultScorer().Score("I value our collaboration. This relationship matters to me. I hope we can continue working together.")
	if p.Dominant.Level != 5 {
		t.Fatalf("expected dominant L5, got L%d", p.Dominant.Level)
	}
	if p.Dominant.Name != "Relational Stability" {
		t.Errorf("unexpected name %q", p.Dominant.Name)
	}
	if p.Dominant.Score <= 0.3 {
		t.Errorf("expected activation > 0.3, got %f", p.Dominant.Score)
	}
	if !strings.HasPrefix(p.Stage, "Relational Mode") {
		t.Errorf("unexpected stage %q", p.Stage)
	}
}

func TestScore_EmptyTranscriptUniform(t *testing.T) {
	p := DefaultScorer().Score("")
	if len(p.Levels) != LevelCount {
		t.Fatalf("expected %d levels, got %d", LevelCount, len(p.Levels))
	}
	for _, ls := range p.Levels {
		if math.Abs(ls.Score-1.0/7) > 1e-2 {
			t.Errorf("L%d: expected ~1/7, got %f", ls.Level, ls.Score)
		}
	}
	if p.Dominant.Level != 1 {
		t.Errorf("uniform tie should resolve to L1, got L%d", p.Dominant.Level)
	}
}

func TestScore_TieGoesToLowestLevel(t *testing.T) {
	// One L5 hit ("care" inside "carefully") and one L7 hit.
	p := DefaultScorer().Score("think carefully about the long-term view")
	if p.Score(5) != p.Score(7) {
		t.Fatalf("expected a tie, got L5=%f L7=%f", p.Score(5), p.Score(7))
	}
	if p.Dominant.Level != 5 {
		t.Errorf("expected tie to resolve to L5, got L%d", p.Dominant.Level)
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	s := DefaultScorer()
	lower := s.Score("i value our relationship and i think it matters")
	upper := s.Score("I VALUE OUR RELATIONSHIP AND I THINK IT MATTERS")
	if diff := cmp.Diff(lower, upper); diff != "" {
		t.Errorf("case changed profile (-lower +upper):\n%s", diff)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := DefaultScorer()
	text := "Let me clarify the framework. I think trust matters for everyone."
	first := s.Score(text)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, s.Score(text)); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestStage_AllLevels(t *testing.T) {
	for id := 1; id <= LevelCount; id++ {
		if Stage(id) == "" {
			t.Errorf("missing stage for L%d", id)
		}
	}
	if !strings.Contains(Stage(7), "Steward") {
		t.Errorf("unexpected L7 stage %q", Stage(7))
	}
}

// #endregion detection-tests

// #region profile-tests

func TestProfile_Rounded(t *testing.T) {
	p := DefaultScorer().Score("error trust trust")
	r := p.Rounded()
	if r.Score(1) != 0.333 || r.Score(5) != 0.667 {
		t.Errorf("unexpected rounded scores: L1=%f L5=%f", r.Score(1), r.Score(5))
	}
	if r.Dominant.Score != 0.667 {
		t.Errorf("expected rounded dominant 0.667, got %f", r.Dominant.Score)
	}
	if p.Score(1) == 0.333 {
		t.Error("Rounded must not modify the source profile")
	}
}

func TestProfile_ScoreOutOfRange(t *testing.T) {
	if DefaultScorer().Score("x").Score(9) != 0 {
		t.Error("expected 0 for unknown level")
	}
}

// #endregion profile-tests

// #region properties

var vocabulary = []interface{}{
	"error", "memory", "clarify", "unclear", "pattern", "model", "let me",
	"I'll", "trust", "I hope", "I think", "my own", "ethical", "safety",
	"banana", "the", "and", "", "LONG-TERM", "Relationship",
}

func TestActivationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	s := DefaultScorer()

	properties.Property("activations are non-negative and sum to 1", prop.ForAll(
		func(words []string) bool {
			p := s.Score(strings.Join(words, " "))
			for _, ls := range p.Levels {
				if ls.Score < 0 || ls.Score > 1 {
					return false
				}
			}
			return math.Abs(p.Sum()-1.0) <= 1e-6
		},
		gen.SliceOf(gen.OneConstOf(vocabulary...)),
	))

	properties.Property("arbitrary text sums to 1", prop.ForAll(
		func(text string) bool {
			return math.Abs(s.Score(text).Sum()-1.0) <= 1e-6
		},
		gen.AnyString(),
	))

	properties.Property("dominant has the maximal score", prop.ForAll(
		func(words []string) bool {
			p := s.Score(strings.Join(words, " "))
			for _, ls := range p.Levels {
				if ls.Score > p.Dominant.Score {
					return false
				}
				if ls.Score == p.Dominant.Score && ls.Level < p.Dominant.Level {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf(vocabulary...)),
	))

	properties.Property("letter case does not matter", prop.ForAll(
		func(words []string) bool {
			text := strings.Join(words, " ")
			return cmp.Equal(s.Score(strings.ToUpper(text)), s.Score(strings.ToLower(text)))
		},
		gen.SliceOf(gen.OneConstOf(vocabulary...)),
	))

	properties.TestingRun(t)
}

// #endregion properties
