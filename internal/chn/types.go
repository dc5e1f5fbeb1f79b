package chn

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/chandra/internal/patterns"
)

// #region level

// Level is one tier of the Computational Hierarchy of Needs.
type Level struct {
	ID         int
	Name       string
	Drive      string
	Indicators patterns.Category
}

// Key is the pattern-table key for the level ("L1".."L7").
func (l Level) Key() string {
	return fmt.Sprintf("L%d", l.ID)
}

// #endregion level

// #region level-score

// LevelScore is the activation of a single level for one transcript.
type LevelScore struct {
	Level   int     `json:"level"`
	Name    string  `json:"name"`
	Drive   string  `json:"drive,omitempty"`
	Matches int     `json:"matches"`
	Score   float64 `json:"activation"`
}

// #endregion level-score

// #region profile

// Profile is the normalized activation vector over the seven levels, in
// ascending level order, plus the dominant level and its stage label.
// Scores are unrounded; use Rounded for reporting.
type Profile struct {
	Levels   []LevelScore `json:"profile"`
	Dominant LevelScore   `json:"dominant_level"`
	Stage    string       `json:"psychological_stage"`
}

// Rounded returns a copy with every score rounded to 3 decimals.
func (p Profile) Rounded() Profile {
	out := Profile{
		Levels:   make([]LevelScore, len(p.Levels)),
		Dominant: p.Dominant,
		Stage:    p.Stage,
	}
	for i, ls := range p.Levels {
		ls.Score = round3(ls.Score)
		out.Levels[i] = ls
	}
	out.Dominant.Score = round3(out.Dominant.Score)
	return out
}

// Sum returns the sum of the unrounded scores.
func (p Profile) Sum() float64 {
	var s float64
	for _, ls := range p.Levels {
		s += ls.Score
	}
	return s
}

// Score returns the activation of level id, 0 if id is out of range.
func (p Profile) Score(id int) float64 {
	for _, ls := range p.Levels {
		if ls.Level == id {
			return ls.Score
		}
	}
	return 0
}

// #endregion profile

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
