// Package store persists region adjacency graphs to SQLite so downstream
// tools can query regions and adjacencies without re-running extraction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"supervoxelrag/internal/models"
	"supervoxelrag/pkg/rag"
)

type Store struct {
	*sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            INTEGER PRIMARY KEY AUTOINCREMENT,
			source            TEXT,
			depth             INTEGER,
			n_rows            INTEGER,
			n_cols            INTEGER,
			connectivity      INTEGER,
			merge_threshold   DOUBLE,
			created_at        BIGINT
		);
		CREATE TABLE IF NOT EXISTS regions (
			run_id            INTEGER,
			label             BIGINT,
			voxels            BIGINT,
			mean_intensity    DOUBLE,
			PRIMARY KEY (run_id, label),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS adjacencies (
			run_id            INTEGER,
			label_a           BIGINT,
			label_b           BIGINT,
			contacts          BIGINT,
			PRIMARY KEY (run_id, label_a, label_b),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db}, nil
}

// SaveGraph stores a run, its regions and its adjacencies in a single
// transaction and returns the new run ID. means may be nil.
func (s *Store) SaveGraph(ctx context.Context, run models.RunInfo, g *rag.RegionGraph, means map[int64]float64) (int64, error) {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, depth, n_rows, n_cols, connectivity, merge_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Source, run.Depth, run.Rows, run.Cols, run.Connectivity, run.MergeThreshold, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	regionStmt, err := tx.PrepareContext(ctx, `INSERT INTO regions (run_id, label, voxels, mean_intensity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer regionStmt.Close()

	for _, label := range g.Regions() {
		var mean sql.NullFloat64
		if m, ok := means[label]; ok {
			mean = sql.NullFloat64{Float64: m, Valid: true}
		}
		if _, err := regionStmt.ExecContext(ctx, runID, label, g.Size(label), mean); err != nil {
			return 0, fmt.Errorf("failed to insert region %d: %w", label, err)
		}
	}

	adjStmt, err := tx.PrepareContext(ctx, `INSERT INTO adjacencies (run_id, label_a, label_b, contacts) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer adjStmt.Close()

	for _, a := range g.Adjacencies() {
		if _, err := adjStmt.ExecContext(ctx, runID, a.A, a.B, a.Contacts); err != nil {
			return 0, fmt.Errorf("failed to insert adjacency %d-%d: %w", a.A, a.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// Run returns the stored metadata of a run
func (s *Store) Run(ctx context.Context, runID int64) (models.RunInfo, error) {
	var run models.RunInfo
	var createdAt int64
	err := s.QueryRowContext(ctx,
		`SELECT run_id, source, depth, n_rows, n_cols, connectivity, merge_threshold, created_at
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&run.ID, &run.Source, &run.Depth, &run.Rows, &run.Cols, &run.Connectivity, &run.MergeThreshold, &createdAt)
	if err != nil {
		return models.RunInfo{}, err
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	return run, nil
}

// Regions returns the regions of a run ordered by label
func (s *Store) Regions(ctx context.Context, runID int64) ([]models.RegionRecord, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT label, voxels, mean_intensity FROM regions WHERE run_id = ? ORDER BY label`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RegionRecord
	for rows.Next() {
		var r models.RegionRecord
		var mean sql.NullFloat64
		if err := rows.Scan(&r.Label, &r.Voxels, &mean); err != nil {
			return nil, err
		}
		r.MeanIntensity, r.HasIntensity = mean.Float64, mean.Valid
		out = append(out, r)
	}
	return out, rows.Err()
}

// Adjacencies returns the adjacencies of a run ordered by (label_a, label_b)
func (s *Store) Adjacencies(ctx context.Context, runID int64) ([]models.AdjacencyRecord, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT label_a, label_b, contacts FROM adjacencies WHERE run_id = ? ORDER BY label_a, label_b`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AdjacencyRecord
	for rows.Next() {
		var a models.AdjacencyRecord
		if err := rows.Scan(&a.LabelA, &a.LabelB, &a.Contacts); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
