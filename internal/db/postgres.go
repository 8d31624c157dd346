package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for Forensics Engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SavePipelineRunSummary persists a dataflow pipeline run's outcome: which
// run, over which transactions, and how many fixpoint iterations it took
// to converge. This is a run-level artifact distinct from the pipeline's
// node storage (never persisted, per the engine's non-goals): one summary
// row keyed by run ID.
func (s *PostgresStore) SavePipelineRunSummary(ctx context.Context, runID string, txids []string, iterations int) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_runs (
			run_id     TEXT PRIMARY KEY,
			txids      TEXT[] NOT NULL,
			iterations INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure pipeline_runs table: %v", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (run_id, txids, iterations)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id) DO UPDATE
		SET txids = EXCLUDED.txids, iterations = EXCLUDED.iterations
	`, runID, txids, iterations)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline_runs row: %v", err)
	}
	return nil
}

