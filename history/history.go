// Package history records scan runs in a local SQLite database so that the
// footprint of a project can be tracked over time.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"carbonlint/scanner"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("run not found")

type Run struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	Root            string    `json:"root"`
	Fingerprint     string    `json:"fingerprint"`
	Region          string    `json:"region"`
	HardwareProfile string    `json:"hardwareProfile"`
	PUE             float64   `json:"pue"`
	Files           int       `json:"files"`
	SizeBytes       int64     `json:"sizeBytes"`
	Weight          float64   `json:"weight"`
	EnergyKWh       float64   `json:"energy_kWh"`
	CarbonGrams     float64   `json:"carbon_grams"`
	Budget          float64   `json:"budget"`
	GreenScore      int       `json:"greenScore"`
	OverBudget      bool      `json:"overBudget"`
}

type Summary struct {
	Runs            int     `json:"runs"`
	TotalCarbon     float64 `json:"totalCarbon_grams"`
	AverageCarbon   float64 `json:"averageCarbon_grams"`
	AverageScore    float64 `json:"averageScore"`
	BestScore       int     `json:"bestScore"`
	WorstScore      int     `json:"worstScore"`
	OverBudgetCount int     `json:"overBudgetRuns"`
}

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	created_at       INTEGER NOT NULL,
	root             TEXT NOT NULL,
	fingerprint      TEXT NOT NULL,
	region           TEXT NOT NULL,
	hardware_profile TEXT NOT NULL,
	pue              REAL NOT NULL,
	files            INTEGER NOT NULL,
	size_bytes       INTEGER NOT NULL,
	weight           REAL NOT NULL,
	energy_kwh       REAL NOT NULL,
	carbon_grams     REAL NOT NULL,
	budget           REAL NOT NULL,
	green_score      INTEGER NOT NULL,
	over_budget      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

const runColumns = `id, created_at, root, fingerprint, region, hardware_profile, pue,
	files, size_bytes, weight, energy_kwh, carbon_grams, budget, green_score, over_budget`

// DefaultPath is history.db under the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "carbonlint", "history.db"), nil
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// NewRun captures the persisted subset of a scan result.
func NewRun(res *scanner.Result) Run {
	return Run{
		Root:            res.Root,
		Fingerprint:     res.Fingerprint,
		Region:          res.Region.Key,
		HardwareProfile: res.HardwareProfile,
		PUE:             res.PUE,
		Files:           res.TotalFiles,
		SizeBytes:       res.TotalSize,
		Weight:          res.TotalWeight,
		EnergyKWh:       res.EnergyKWh,
		CarbonGrams:     res.CarbonGrams,
		Budget:          res.Budget,
		GreenScore:      res.GreenScore,
		OverBudget:      res.OverBudget,
	}
}

// Save inserts run, assigning an ID and timestamp when they are unset.
func (s *Store) Save(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Root, run.Fingerprint, run.Region,
		run.HardwareProfile, run.PUE, run.Files, run.SizeBytes, run.Weight,
		run.EnergyKWh, run.CarbonGrams, run.Budget, run.GreenScore, boolToInt(run.OverBudget),
	)
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// List returns runs newest first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(carbon_grams), 0),
		COALESCE(AVG(carbon_grams), 0),
		COALESCE(AVG(green_score), 0),
		COALESCE(MAX(green_score), 0),
		COALESCE(MIN(green_score), 0),
		COALESCE(SUM(over_budget), 0)
		FROM runs`).Scan(
		&sum.Runs, &sum.TotalCarbon, &sum.AverageCarbon, &sum.AverageScore,
		&sum.BestScore, &sum.WorstScore, &sum.OverBudgetCount,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize runs: %w", err)
	}
	return sum, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var created int64
	var over int
	err := row.Scan(&run.ID, &created, &run.Root, &run.Fingerprint, &run.Region,
		&run.HardwareProfile, &run.PUE, &run.Files, &run.SizeBytes, &run.Weight,
		&run.EnergyKWh, &run.CarbonGrams, &run.Budget, &run.GreenScore, &over)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = time.Unix(0, created).UTC()
	run.OverBudget = over != 0
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
