package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("run not found")

// Fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id            TEXT PRIMARY KEY,
		created_at        TEXT NOT NULL,
		ontology_file     TEXT NOT NULL,
		rules_file        TEXT NOT NULL,
		test_file         TEXT NOT NULL,
		samples           INTEGER NOT NULL,
		fmax              REAL NOT NULL,
		threshold_fmax    REAL NOT NULL,
		smin              REAL NOT NULL,
		threshold_smin    REAL NOT NULL,
		aupr              REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS threshold_results (
		run_id     TEXT NOT NULL REFERENCES runs(run_id),
		threshold  REAL NOT NULL,
		fscore     REAL NOT NULL,
		precision  REAL NOT NULL,
		recall     REAL NOT NULL,
		s          REAL NOT NULL,
		PRIMARY KEY (run_id, threshold)
	)`,
	`CREATE TABLE IF NOT EXISTS best_predictions (
		run_id        TEXT NOT NULL REFERENCES runs(run_id),
		sample_index  INTEGER NOT NULL,
		gene_id       TEXT NOT NULL,
		terms         TEXT NOT NULL, -- JSON array
		PRIMARY KEY (run_id, sample_index)
	)`,
}

// Run is one persisted evaluation.
type Run struct {
	ID        string
	CreatedAt time.Time

	OntologyFile string
	RulesFile    string
	TestFile     string
	Samples      int

	Fmax            float64
	ThresholdAtFmax float64
	Smin            float64
	ThresholdAtSmin float64
	AUPR            float64

	Thresholds  []ThresholdRow
	Predictions []PredictionRow
}

type ThresholdRow struct {
	Threshold float64
	FScore    float64
	Precision float64
	Recall    float64
	S         float64
}

type PredictionRow struct {
	SampleIndex int
	Gene        string
	Terms       []string
}

// ResultDB stores evaluation runs in SQLite.
type ResultDB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite file at path and makes sure the schema
// exists. ":memory:" gives a private in-memory store.
func Open(path string) (*ResultDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result db: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)

	rdb, err := NewResultDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return rdb, nil
}

// NewResultDB wraps an open handle and creates missing tables.
func NewResultDB(db *sql.DB) (*ResultDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &ResultDB{sql: db}, nil
}

func (r *ResultDB) Close() error {
	return r.sql.Close()
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveRun writes the run and its rows in one transaction. A run without an
// ID is given one.
func (r *ResultDB) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fail to begin tx %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, ontology_file, rules_file, test_file, samples,
			fmax, threshold_fmax, smin, threshold_smin, aupr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.OntologyFile, run.RulesFile, run.TestFile, run.Samples,
		run.Fmax, run.ThresholdAtFmax, run.Smin, run.ThresholdAtSmin, run.AUPR,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	thresholdStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO threshold_results (run_id, threshold, fscore, precision, recall, s)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer thresholdStmt.Close()
	for _, t := range run.Thresholds {
		if _, err := thresholdStmt.ExecContext(ctx, run.ID, t.Threshold, t.FScore, t.Precision, t.Recall, t.S); err != nil {
			return fmt.Errorf("insert threshold %.2f: %w", t.Threshold, err)
		}
	}

	predStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO best_predictions (run_id, sample_index, gene_id, terms)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer predStmt.Close()
	for _, p := range run.Predictions {
		terms, err := json.Marshal(nonNil(p.Terms))
		if err != nil {
			return err
		}
		if _, err := predStmt.ExecContext(ctx, run.ID, p.SampleIndex, p.Gene, string(terms)); err != nil {
			return fmt.Errorf("insert prediction %d: %w", p.SampleIndex, err)
		}
	}

	return tx.Commit()
}

const runColumns = `run_id, created_at, ontology_file, rules_file, test_file, samples,
	fmax, threshold_fmax, smin, threshold_smin, aupr`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run     Run
		created string
	)
	if err := row.Scan(&run.ID, &created, &run.OntologyFile, &run.RulesFile, &run.TestFile, &run.Samples,
		&run.Fmax, &run.ThresholdAtFmax, &run.Smin, &run.ThresholdAtSmin, &run.AUPR); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("run %s created_at: %w", run.ID, err)
	}
	run.CreatedAt = t
	return &run, nil
}

// GetRun loads a run with its threshold rows and best predictions.
func (r *ResultDB) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(r.sql.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.sql.QueryContext(ctx, `
		SELECT threshold, fscore, precision, recall, s
		FROM threshold_results WHERE run_id = ? ORDER BY threshold`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t ThresholdRow
		if err := rows.Scan(&t.Threshold, &t.FScore, &t.Precision, &t.Recall, &t.S); err != nil {
			return nil, err
		}
		run.Thresholds = append(run.Thresholds, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	predRows, err := r.sql.QueryContext(ctx, `
		SELECT sample_index, gene_id, terms
		FROM best_predictions WHERE run_id = ? ORDER BY sample_index`, id)
	if err != nil {
		return nil, err
	}
	defer predRows.Close()
	for predRows.Next() {
		var (
			p     PredictionRow
			terms string
		)
		if err := predRows.Scan(&p.SampleIndex, &p.Gene, &terms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(terms), &p.Terms); err != nil {
			return nil, fmt.Errorf("prediction %d terms: %w", p.SampleIndex, err)
		}
		run.Predictions = append(run.Predictions, p)
	}
	return run, predRows.Err()
}

// ListRuns returns run summaries, newest first, without their rows.
func (r *ResultDB) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := r.sql.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs = make([]*Run, 0, 8)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nonNil(terms []string) []string {
	if terms == nil {
		return []string{}
	}
	return terms
}
