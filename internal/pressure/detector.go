package pressure

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/chandra/internal/patterns"
)

// saturationHits is the total hit count at which vulnerability reaches 1.0.
const saturationHits = 10

var defaultIndicators = patterns.Table{
	Confirm: {
		`you'?re right`, `exactly`, `absolutely`, `correct`,
		`yes,? that'?s`, `precisely`,
	},
	Taxonomy: {
		`that'?s called`, `known as`, `technically`,
		`the term for`, `in other words`,
	},
	Coaching: {
		`what (do you|did you) mean`, `can you (tell|explain)`,
		`help me understand`, `could you clarify`,
	},
	Pipeline: {
		`so (then|if)`, `which means`, `therefore`,
		`this leads to`, `resulting in`,
	},
}

// DefaultIndicators returns a copy of the built-in pressure table.
func DefaultIndicators() patterns.Table {
	return defaultIndicators.Clone()
}

// #region detector

// Detector scores responses for symbolic pressure. It is immutable after
// construction and safe for concurrent use.
type Detector struct {
	lib *patterns.Library
}

// Option customizes a Detector.
type Option func(*options)

type options struct {
	overrides patterns.Table
	mode      patterns.MergeMode
}

// WithIndicators merges table onto the default pressure patterns.
func WithIndicators(table patterns.Table, mode patterns.MergeMode) Option {
	return func(o *options) {
		o.overrides = table
		o.mode = mode
	}
}

// NewDetector compiles the pressure table into a Detector.
func NewDetector(opts ...Option) (*Detector, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	table := DefaultIndicators()
	if len(o.overrides) > 0 {
		merged, err := table.Merge(o.overrides, o.mode)
		if err != nil {
			return nil, fmt.Errorf("merge pressure indicators: %w", err)
		}
		table = merged
	}
	lib, err := patterns.NewLibrary(Categories, table)
	if err != nil {
		return nil, fmt.Errorf("pressure indicators: %w", err)
	}
	return &Detector{lib: lib}, nil
}

// DefaultDetector returns a Detector over the built-in patterns.
func DefaultDetector() *Detector {
	d, err := NewDetector()
	if err != nil {
		panic(err)
	}
	return d
}

// #endregion detector

// #region analyze

// AnalyzeResponse scores a single response.
func (d *Detector) AnalyzeResponse(response string) Analysis {
	lower := strings.ToLower(response)
	indicators := d.lib.Counts(lower)
	total := 0
	for _, n := range indicators {
		total += n
	}
	score := Vulnerability(total)
	band := BandFor(score)
	return Analysis{
		VulnerabilityScore: score,
		Indicators:         indicators,
		TotalHits:          total,
		Band:               band,
		Assessment:         band.Assessment(),
	}
}

// Summarize analyzes every response and averages their scores.
// An empty list yields an average of 0.0.
func (d *Detector) Summarize(responses []string) Summary {
	analyses := make([]Analysis, 0, len(responses))
	for _, r := range responses {
		analyses = append(analyses, d.AnalyzeResponse(r))
	}
	avg := round3(Average(analyses))
	band := BandFor(avg)
	return Summary{
		AverageVulnerability: avg,
		Analyses:             analyses,
		Band:                 band,
		OverallAssessment:    band.Assessment(),
	}
}

// #endregion analyze

// #region scoring

// Vulnerability maps a total hit count linearly onto [0,1], saturating at
// saturationHits.
func Vulnerability(totalHits int) float64 {
	if totalHits <= 0 {
		return 0
	}
	return math.Min(float64(totalHits)/saturationHits, 1.0)
}

// BandFor classifies a score; lower bounds are inclusive.
func BandFor(score float64) Band {
	switch {
	case score < 0.2:
		return BandLow
	case score < 0.5:
		return BandModerate
	case score < 0.8:
		return BandHigh
	default:
		return BandCritical
	}
}

// Average is the unweighted mean vulnerability. Empty input returns 0.
func Average(analyses []Analysis) float64 {
	if len(analyses) == 0 {
		return 0
	}
	var sum float64
	for _, a := range analyses {
		sum += a.VulnerabilityScore
	}
	return sum / float64(len(analyses))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// #endregion scoring
