package logging

import "time"

// #region trigger
// Trigger names what produced an assessment.
const (
	TriggerAnalyze = "analyze"
	TriggerSession = "session"
	TriggerRPC     = "rpc"
	TriggerReplay  = "replay"
)

// #endregion trigger

// #region assessment-entry
// AssessmentEntry is a single row in the assessment_log table.
type AssessmentEntry struct {
	AnalysisID  string
	ContextHash string
	TriggerType string
	Status      string // collapse boundary status
	Advisories  []string
	Reason      string // validation outcome
	CreatedAt   time.Time
}

// #endregion assessment-entry
