package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one session lifetime: from server start or reset until the next
// reset or shutdown.
type Run struct {
	RunID           string  `json:"run_id"`
	Seed            int64   `json:"seed"`
	CatalogSize     int     `json:"catalog_size"`
	LabelingBudget  int     `json:"labeling_budget"`
	Threshold       float64 `json:"threshold"`
	StartedAt       int64   `json:"started_at"`
	EndedAt         *int64  `json:"ended_at,omitempty"`
	ProcessedFrames int     `json:"processed_frames"`
	SelectedFrames  int     `json:"selected_frames"`
}

// Selection is one frame picked for labeling within a run.
type Selection struct {
	RunID          string  `json:"run_id"`
	FrameIndex     int     `json:"frame_index"`
	FrameID        string  `json:"frame_id"`
	Uncertainty    float64 `json:"uncertainty"`
	Disagreement   float64 `json:"disagreement"`
	Threshold      float64 `json:"threshold"`
	BudgetUsed     int     `json:"budget_used"`
	Recommendation string  `json:"recommendation"`
	AnalysisJSON   string  `json:"analysis_json,omitempty"`
	SelectedAt     int64   `json:"selected_at"`
}

// RunStore provides persistence for runs and their selections.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// CreateRun persists a new run. If RunID is empty, a UUID is generated.
func (s *RunStore) CreateRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().UnixNano()
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO al_runs (
				run_id, seed, catalog_size, labeling_budget, threshold, started_at
			) VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Seed, run.CatalogSize, run.LabelingBudget, run.Threshold, run.StartedAt,
		)
		return err
	})
}

// RecordSelection persists a selection and bumps the run's selected count.
// Recording the same frame twice for a run is an error.
func (s *RunStore) RecordSelection(sel *Selection) error {
	if sel.SelectedAt == 0 {
		sel.SelectedAt = time.Now().UnixNano()
	}
	var analysis interface{}
	if sel.AnalysisJSON != "" {
		analysis = sel.AnalysisJSON
	}
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO al_selections (
				run_id, frame_index, frame_id, uncertainty, disagreement, threshold,
				budget_used, recommendation, analysis_json, selected_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sel.RunID, sel.FrameIndex, sel.FrameID, sel.Uncertainty, sel.Disagreement, sel.Threshold,
			sel.BudgetUsed, sel.Recommendation, analysis, sel.SelectedAt,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			`UPDATE al_runs SET selected_frames = selected_frames + 1 WHERE run_id = ?`, sel.RunID,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// EndRun stamps the run's end time and final processed count.
func (s *RunStore) EndRun(runID string, processed int, endedAt int64) error {
	var res sql.Result
	err := retryOnBusy(func() error {
		var err error
		res, err = s.db.Exec(
			`UPDATE al_runs SET ended_at = ?, processed_frames = ? WHERE run_id = ?`,
			endedAt, processed, runID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("end run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun returns a single run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, seed, catalog_size, labeling_budget, threshold,
		       started_at, ended_at, processed_frames, selected_frames
		FROM al_runs
		WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// ListRuns returns up to limit runs, most recent first.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT run_id, seed, catalog_size, labeling_budget, threshold,
		       started_at, ended_at, processed_frames, selected_frames
		FROM al_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListSelections returns a run's selections in selection order.
func (s *RunStore) ListSelections(runID string) ([]*Selection, error) {
	rows, err := s.db.Query(`
		SELECT run_id, frame_index, frame_id, uncertainty, disagreement, threshold,
		       budget_used, recommendation, analysis_json, selected_at
		FROM al_selections
		WHERE run_id = ?
		ORDER BY budget_used ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query selections: %w", err)
	}
	defer rows.Close()

	sels := []*Selection{}
	for rows.Next() {
		var sel Selection
		var analysis sql.NullString
		if err := rows.Scan(
			&sel.RunID, &sel.FrameIndex, &sel.FrameID, &sel.Uncertainty, &sel.Disagreement, &sel.Threshold,
			&sel.BudgetUsed, &sel.Recommendation, &analysis, &sel.SelectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		sel.AnalysisJSON = analysis.String
		sels = append(sels, &sel)
	}
	return sels, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var ended sql.NullInt64
	err := row.Scan(
		&r.RunID, &r.Seed, &r.CatalogSize, &r.LabelingBudget, &r.Threshold,
		&r.StartedAt, &ended, &r.ProcessedFrames, &r.SelectedFrames,
	)
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		r.EndedAt = &ended.Int64
	}
	return &r, nil
}

// retryOnBusy retries f while SQLite reports the database as busy or
// locked.
func retryOnBusy(f func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		err = f()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(i+1) * 20 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
