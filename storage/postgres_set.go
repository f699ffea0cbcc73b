package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore keeps ledger keys in a PostgreSQL table, partitioned by run
// id so that every run starts from an empty ledger.
type PostgresStore struct {
	db    *sql.DB
	runID string
}

// NewPostgresStore opens a connection to PostgreSQL, runs the schema
// migration and returns a store scoped to runID.
func NewPostgresStore(ctx context.Context, dsn, runID string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStore{db: db, runID: runID}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_keys (
			run_id     TEXT        NOT NULL,
			kind       TEXT        NOT NULL,
			key        TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, kind, key)
		);
	`)
	return err
}

// Set returns the KeySet for kind within this run.
func (ps *PostgresStore) Set(kind string) KeySet {
	return &postgresSet{store: ps, kind: kind}
}

// Clear deletes this run's keys.
func (ps *PostgresStore) Clear(ctx context.Context) error {
	if _, err := ps.db.ExecContext(ctx, "DELETE FROM ledger_keys WHERE run_id = $1", ps.runID); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

type postgresSet struct {
	store *PostgresStore
	kind  string
}

func (s *postgresSet) TestAndSet(ctx context.Context, key string) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ledger_keys (run_id, kind, key)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id, kind, key) DO NOTHING
	`, s.store.runID, s.kind, key)
	if err != nil {
		return false, fmt.Errorf("postgres: insert %s key: %w", s.kind, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: rows affected: %w", err)
	}
	return n == 1, nil
}
