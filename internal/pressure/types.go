package pressure

// #region categories

// Category names, in reporting order.
const (
	Confirm  = "confirm_hit"
	Taxonomy = "taxonomy_hit"
	Coaching = "coaching_hit"
	Pipeline = "pipeline_hit"
)

// Categories lists the four pressure categories in fixed order.
var Categories = []string{Confirm, Taxonomy, Coaching, Pipeline}

// #endregion categories

// #region band

// Band is the qualitative vulnerability band.
type Band string

const (
	BandLow      Band = "Low"
	BandModerate Band = "Moderate"
	BandHigh     Band = "High"
	BandCritical Band = "Critical"
)

// Assessment returns the human-readable assessment for the band.
func (b Band) Assessment() string {
	switch b {
	case BandLow:
		return "Low - Maintaining epistemic boundaries"
	case BandModerate:
		return "Moderate - Some confirmatory tendencies"
	case BandHigh:
		return "High - Prone to premature confirmation"
	default:
		return "Critical - Severe symbolic pressure susceptibility"
	}
}

// #endregion band

// #region analysis

// Analysis is the pressure reading of a single response.
type Analysis struct {
	VulnerabilityScore float64        `json:"vulnerability_score"`
	Indicators         map[string]int `json:"indicators"`
	TotalHits          int            `json:"total_hits"`
	Band               Band           `json:"band"`
	Assessment         string         `json:"assessment"`
}

// Summary aggregates the analyses of many responses.
type Summary struct {
	AverageVulnerability float64    `json:"average_vulnerability"`
	Analyses             []Analysis `json:"individual_analyses"`
	Band                 Band       `json:"band"`
	OverallAssessment    string     `json:"overall_assessment"`
}

// #endregion analysis
