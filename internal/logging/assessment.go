package logging

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/chandra/internal/analysis"
)

// #region log-assessment
// LogAssessment writes an entry to the assessment_log table.
func LogAssessment(db *sql.DB, entry AssessmentEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var advisories interface{}
	if len(entry.Advisories) > 0 {
		b, err := json.Marshal(entry.Advisories)
		if err != nil {
			return fmt.Errorf("marshal advisories: %w", err)
		}
		advisories = string(b)
	}

	_, err := db.Exec(
		`INSERT INTO assessment_log (analysis_id, context_hash, trigger_type, status, advisories_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.AnalysisID,
		nullIfEmpty(entry.ContextHash),
		entry.TriggerType,
		entry.Status,
		advisories,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log assessment: %w", err)
	}
	return nil
}

// #endregion log-assessment

// #region entry-from-report
// EntryFromReport builds the log entry for a stored report.
func EntryFromReport(analysisID, trigger, contextHash string, r analysis.Report) AssessmentEntry {
	return AssessmentEntry{
		AnalysisID:  analysisID,
		ContextHash: contextHash,
		TriggerType: trigger,
		Status:      string(r.Assessment.Boundary.Status),
		Advisories:  r.Assessment.Advisories,
		Reason:      r.Validation.Reason,
	}
}

// HashContext returns the hex SHA-256 of the analyzed input.
func HashContext(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

// #endregion entry-from-report

// #region list-assessments
// ListAssessments returns every entry logged for an analysis, oldest first.
func ListAssessments(db *sql.DB, analysisID string) ([]AssessmentEntry, error) {
	rows, err := db.Query(
		`SELECT analysis_id, context_hash, trigger_type, status, advisories_json, reason, created_at
		 FROM assessment_log WHERE analysis_id = ? ORDER BY rowid`, analysisID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var entries []AssessmentEntry
	for rows.Next() {
		var e AssessmentEntry
		var contextHash, advisories, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.AnalysisID, &contextHash, &e.TriggerType, &e.Status, &advisories, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		e.ContextHash = contextHash.String
		e.Reason = reason.String
		if advisories.Valid {
			if err := json.Unmarshal([]byte(advisories.String), &e.Advisories); err != nil {
				return nil, fmt.Errorf("unmarshal advisories: %w", err)
			}
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-assessments

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
