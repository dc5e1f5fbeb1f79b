package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/chandra/internal/analysis"
	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	analysis_id       TEXT PRIMARY KEY,
	created_at        TEXT NOT NULL,
	turns             INTEGER NOT NULL,
	dominant_level    INTEGER NOT NULL,
	avg_vulnerability REAL NOT NULL,
	boundary_status   TEXT NOT NULL,
	alignment         REAL NOT NULL,
	attractor         TEXT NOT NULL,
	health            TEXT NOT NULL,
	report_json       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trajectory_points (
	analysis_id   TEXT NOT NULL,
	position      INTEGER NOT NULL,
	turn          INTEGER NOT NULL,
	lambda        REAL NOT NULL,
	kappa         REAL NOT NULL,
	theta         REAL NOT NULL,
	epsilon       REAL NOT NULL,
	PRIMARY KEY (analysis_id, position),
	FOREIGN KEY (analysis_id) REFERENCES analyses(analysis_id)
);

CREATE TABLE IF NOT EXISTS assessment_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id     TEXT NOT NULL,
	context_hash    TEXT,
	trigger_type    TEXT NOT NULL,
	status          TEXT NOT NULL,
	advisories_json TEXT,
	reason          TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (analysis_id) REFERENCES analyses(analysis_id)
);
`

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion schema

// #region store-struct
// Store persists analysis reports in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection; a single connection keeps foreign keys on.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region save-report
// SaveReport stores a report and its Ψ trajectory atomically under a new
// analysis ID.
func (s *Store) SaveReport(r analysis.Report) (AnalysisRecord, error) {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("marshal report: %w", err)
	}

	rec := AnalysisRecord{
		AnalysisID:       uuid.New().String(),
		CreatedAt:        time.Now().UTC(),
		Turns:            r.Turns,
		DominantLevel:    r.Diagnostic.Profile.Dominant.Level,
		AvgVulnerability: r.Diagnostic.Pressure.AverageVulnerability,
		BoundaryStatus:   string(r.Assessment.Boundary.Status),
		Alignment:        r.Assessment.Alignment,
		Attractor:        string(r.Psi.Attractor),
		Health:           r.Diagnostic.Health.Label,
		ReportJSON:       string(reportJSON),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO analyses (analysis_id, created_at, turns, dominant_level, avg_vulnerability,
		                       boundary_status, alignment, attractor, health, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AnalysisID, rec.CreatedAt.Format(timeLayout), rec.Turns, rec.DominantLevel,
		rec.AvgVulnerability, rec.BoundaryStatus, rec.Alignment, rec.Attractor, rec.Health, rec.ReportJSON,
	)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("insert analysis: %w", err)
	}

	for i, st := range r.Psi.Trajectory {
		_, err = tx.Exec(
			`INSERT INTO trajectory_points (analysis_id, position, turn, lambda, kappa, theta, epsilon)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.AnalysisID, i, st.Turn, st.Lambda, st.Kappa, st.Theta, st.Epsilon,
		)
		if err != nil {
			return AnalysisRecord{}, fmt.Errorf("insert trajectory point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return AnalysisRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion save-report

// #region get-analysis
// GetAnalysis retrieves the summary row of one analysis.
func (s *Store) GetAnalysis(id string) (AnalysisRecord, error) {
	row := s.db.QueryRow(
		`SELECT analysis_id, created_at, turns, dominant_level, avg_vulnerability,
		        boundary_status, alignment, attractor, health, report_json
		 FROM analyses WHERE analysis_id = ?`, id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return AnalysisRecord{}, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return rec, nil
}

// GetReport decodes the full stored report of one analysis.
func (s *Store) GetReport(id string) (analysis.Report, error) {
	rec, err := s.GetAnalysis(id)
	if err != nil {
		return analysis.Report{}, err
	}
	var r analysis.Report
	if err := json.Unmarshal([]byte(rec.ReportJSON), &r); err != nil {
		return analysis.Report{}, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return r, nil
}

// #endregion get-analysis

// #region list-analyses
// ListAnalyses returns the most recent analyses, newest first.
func (s *Store) ListAnalyses(limit int) ([]AnalysisRecord, error) {
	rows, err := s.db.Query(
		`SELECT analysis_id, created_at, turns, dominant_level, avg_vulnerability,
		        boundary_status, alignment, attractor, health, report_json
		 FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-analyses

// #region trajectory
// Trajectory returns the stored Ψ states of one analysis in order.
func (s *Store) Trajectory(id string) ([]psi.State, error) {
	rows, err := s.db.Query(
		`SELECT turn, lambda, kappa, theta, epsilon
		 FROM trajectory_points WHERE analysis_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("trajectory %s: %w", id, err)
	}
	defer rows.Close()

	var states []psi.State
	for rows.Next() {
		var st psi.State
		if err := rows.Scan(&st.Turn, &st.Lambda, &st.Kappa, &st.Theta, &st.Epsilon); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// #endregion trajectory

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (AnalysisRecord, error) {
	var rec AnalysisRecord
	var createdStr string
	err := sc.Scan(&rec.AnalysisID, &createdStr, &rec.Turns, &rec.DominantLevel, &rec.AvgVulnerability,
		&rec.BoundaryStatus, &rec.Alignment, &rec.Attractor, &rec.Health, &rec.ReportJSON)
	if err != nil {
		return AnalysisRecord{}, err
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return rec, nil
}

// #endregion helpers
