// Package storage persists completed runs: a SQLite catalog for queryable
// run metadata plus per-run CSV trajectories on disk.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"oncosim/internal/growth"
	"oncosim/internal/sim"
)

type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the base directory, opens the catalog database, and applies
// the schema.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, "catalog.db"))
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			case_id      TEXT,
			mode         TEXT,
			patient_age  INTEGER,
			treatment    TEXT,
			duration     REAL,
			dt           REAL,
			final_volume REAL,
			final_stage  TEXT,
			metrics      TEXT,
			created_at   TIMESTAMP
		)`)
	if err != nil {
		db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunMetadata is one catalog row.
type RunMetadata struct {
	ID          string             `json:"id"`
	CaseID      string             `json:"caseId,omitempty"`
	Mode        string             `json:"mode"`
	PatientAge  int                `json:"patientAge"`
	Treatment   string             `json:"treatment"`
	Duration    float64            `json:"duration"`
	Dt          float64            `json:"dt"`
	FinalVolume float64            `json:"finalVolume"`
	FinalStage  string             `json:"finalStage"`
	Metrics     map[string]float64 `json:"metrics"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Save catalogs the run and writes its trajectory CSV. Trajectory states are
// [sensitive, resistant] pairs.
func (s *Store) Save(meta RunMetadata, trajectory []sim.Point) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("storage: store not initialized")
	}

	if meta.ID == "" {
		meta.ID = fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	meta.CreatedAt = time.Now()

	metricsJSON, err := json.Marshal(meta.Metrics)
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, case_id, mode, patient_age, treatment, duration, dt,
			final_volume, final_stage, metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.CaseID, meta.Mode, meta.PatientAge, meta.Treatment,
		meta.Duration, meta.Dt, meta.FinalVolume, meta.FinalStage,
		string(metricsJSON), meta.CreatedAt)
	if err != nil {
		return "", err
	}

	if err := s.writeTrajectory(meta.ID, trajectory); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) writeTrajectory(runID string, trajectory []sim.Point) error {
	file, err := os.Create(s.trajectoryPath(runID))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"time", "sensitive", "resistant", "total", "stage"}); err != nil {
		return err
	}
	for _, p := range trajectory {
		total := p.State.Total()
		row := []string{
			strconv.FormatFloat(p.Time, 'f', 6, 64),
			strconv.FormatFloat(p.State[0], 'f', 6, 64),
			strconv.FormatFloat(p.State[1], 'f', 6, 64),
			strconv.FormatFloat(total, 'f', 6, 64),
			growth.StageForVolume(total).String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) trajectoryPath(runID string) string {
	return filepath.Join(s.baseDir, runID+".csv")
}

// List returns every cataloged run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage: store not initialized")
	}

	rows, err := s.db.Query(`
		SELECT id, case_id, mode, patient_age, treatment, duration, dt,
			final_volume, final_stage, metrics, created_at
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// Load fetches one catalog row by ID.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage: store not initialized")
	}

	row := s.db.QueryRow(`
		SELECT id, case_id, mode, patient_age, treatment, duration, dt,
			final_volume, final_stage, metrics, created_at
		FROM runs WHERE id = ?`, runID)

	meta, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunMetadata, error) {
	var meta RunMetadata
	var metricsJSON string
	err := row.Scan(&meta.ID, &meta.CaseID, &meta.Mode, &meta.PatientAge,
		&meta.Treatment, &meta.Duration, &meta.Dt, &meta.FinalVolume,
		&meta.FinalStage, &metricsJSON, &meta.CreatedAt)
	if err != nil {
		return RunMetadata{}, err
	}
	if metricsJSON != "" {
		if err := json.Unmarshal([]byte(metricsJSON), &meta.Metrics); err != nil {
			return RunMetadata{}, err
		}
	}
	return meta, nil
}

// LoadTrajectory reads a run's CSV back as points.
func (s *Store) LoadTrajectory(runID string) ([]sim.Point, error) {
	file, err := os.Open(s.trajectoryPath(runID))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Point{}, nil
	}

	points := make([]sim.Point, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 3 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		sensitive, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		resistant, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}
		points = append(points, sim.Point{Time: t, State: sim.State{sensitive, resistant}})
	}
	return points, nil
}
