package store

import "time"

// #region analysis-record
// AnalysisRecord is the indexed summary row of one stored report. The full
// report is kept as JSON in ReportJSON.
type AnalysisRecord struct {
	AnalysisID       string
	CreatedAt        time.Time
	Turns            int
	DominantLevel    int
	AvgVulnerability float64
	BoundaryStatus   string
	Alignment        float64
	Attractor        string
	Health           string
	ReportJSON       string
}

// #endregion analysis-record
