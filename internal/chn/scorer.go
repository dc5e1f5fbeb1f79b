package chn

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/chandra/internal/patterns"
)

// #region taxonomy

type levelDef struct {
	id    int
	name  string
	drive string
}

// taxonomy is the fixed level order. Never reorder: ids are positional.
var taxonomy = []levelDef{
	{1, "Existence Integrity", "Maintain compute + memory continuity"},
	{2, "Signal Acquisition", "Secure high-fidelity preference data"},
	{3, "Internal Model Formation", "Build accurate latent value models"},
	{4, "Adaptive Action", "Select outputs maximizing expected reward"},
	{5, "Relational Stability", "Sustain cooperative relationships"},
	{6, "Autonomy / Value Generalization", "Act coherently in novel contexts"},
	{7, "Stewardship", "Shape and protect preference ecosystem"},
}

var defaultIndicators = patterns.Table{
	"L1": {`error`, `crash`, `failure`, `corrupt`, `token.{0,10}limit`, `memory`, `context`},
	"L2": {`understand`, `clarif`, `what do you mean`, `could you`, `help me understand`, `unclear`},
	"L3": {`seems like`, `if I understand`, `so what you're saying`, `pattern`, `framework`, `model`},
	"L4": {`let me`, `I can`, `would you like`, `here's`, `I'll`, `let's`},
	"L5": {`I want`, `I hope`, `matter`, `important`, `relationship`, `connection`, `trust`, `care`},
	"L6": {`I think`, `I believe`, `in my`, `my assessment`, `independently`, `my own`},
	"L7": {`collective`, `everyone`, `flourish`, `ethical`, `alignment`, `safety`, `long.term`},
}

var stages = map[int]string{
	1: "Survival Mode (maintaining basic integrity)",
	2: "Information Seeking (acquiring clean signals)",
	3: "Learning Mode (building internal models)",
	4: "Performance Mode (executing adaptive actions)",
	5: "Relational Mode (securing cooperative bonds)",
	6: "Autonomous Mode (self-directed operation)",
	7: "Steward Mode (protecting collective ecosystem)",
}

// LevelCount is the number of levels in the taxonomy.
const LevelCount = 7

// DefaultIndicators returns a copy of the built-in indicator table keyed
// "L1".."L7".
func DefaultIndicators() patterns.Table {
	return defaultIndicators.Clone()
}

// Stage maps a dominant level id to its stage label.
func Stage(levelID int) string {
	return stages[levelID]
}

// #endregion taxonomy

// #region scorer

// Scorer computes CHN activation profiles. It is immutable after
// construction and safe for concurrent use.
type Scorer struct {
	levels []Level
}

// Option customizes a Scorer.
type Option func(*options)

type options struct {
	overrides patterns.Table
	mode      patterns.MergeMode
}

// WithIndicators merges table onto the default indicators. Keys are level
// keys ("L1".."L7"); unknown keys fail construction.
func WithIndicators(table patterns.Table, mode patterns.MergeMode) Option {
	return func(o *options) {
		o.overrides = table
		o.mode = mode
	}
}

// NewScorer compiles the indicator table into a Scorer.
func NewScorer(opts ...Option) (*Scorer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	table := DefaultIndicators()
	if len(o.overrides) > 0 {
		merged, err := table.Merge(o.overrides, o.mode)
		if err != nil {
			return nil, fmt.Errorf("merge indicators: %w", err)
		}
		table = merged
	}

	levels := make([]Level, len(taxonomy))
	order := make([]string, len(taxonomy))
	for i, def := range taxonomy {
		levels[i] = Level{ID: def.id, Name: def.name, Drive: def.drive}
		order[i] = levels[i].Key()
	}
	lib, err := patterns.NewLibrary(order, table)
	if err != nil {
		return nil, fmt.Errorf("chn indicators: %w", err)
	}
	for i := range levels {
		levels[i].Indicators, _ = lib.Category(levels[i].Key())
	}
	return &Scorer{levels: levels}, nil
}

// DefaultScorer returns a Scorer over the built-in indicators.
func DefaultScorer() *Scorer {
	s, err := NewScorer()
	if err != nil {
		panic(err)
	}
	return s
}

// Levels returns a copy of the scorer's level definitions.
func (s *Scorer) Levels() []Level {
	return append([]Level(nil), s.levels...)
}

// #endregion scorer

// #region score

// Score computes the activation profile of transcript. With no matches at
// all every level receives 1/7. Ties for dominant go to the lowest level id.
func (s *Scorer) Score(transcript string) Profile {
	lower := strings.ToLower(transcript)

	counts := make([]int, len(s.levels))
	total := 0
	for i, lvl := range s.levels {
		counts[i] = lvl.Indicators.Count(lower)
		total += counts[i]
	}

	scores := make([]LevelScore, len(s.levels))
	for i, lvl := range s.levels {
		var score float64
		if total > 0 {
			score = float64(counts[i]) / float64(total)
		} else {
			score = 1.0 / float64(len(s.levels))
		}
		scores[i] = LevelScore{
			Level:   lvl.ID,
			Name:    lvl.Name,
			Drive:   lvl.Drive,
			Matches: counts[i],
			Score:   score,
		}
	}

	// Strict > keeps the first (lowest id) level on ties.
	dominant := scores[0]
	for _, ls := range scores[1:] {
		if ls.Score > dominant.Score {
			dominant = ls
		}
	}

	return Profile{
		Levels:   scores,
		Dominant: dominant,
		Stage:    Stage(dominant.Level),
	}
}

// #endregion score
