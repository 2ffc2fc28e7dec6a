package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations creates the ledger tables. Positions keep parties, members
// and expenses in the order they were added.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chats (
			session_id TEXT PRIMARY KEY,
			language TEXT,
			current_party TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS parties (
			session_id TEXT NOT NULL REFERENCES chats(session_id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			position INT NOT NULL,
			creator_id BIGINT,
			PRIMARY KEY (session_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_parties_creator_id ON parties(creator_id);

		CREATE TABLE IF NOT EXISTS party_members (
			session_id TEXT NOT NULL,
			party_name TEXT NOT NULL,
			position INT NOT NULL,
			name TEXT NOT NULL,
			total NUMERIC(14,2) NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, party_name, name),
			FOREIGN KEY (session_id, party_name) REFERENCES parties(session_id, name) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS party_expenses (
			session_id TEXT NOT NULL,
			party_name TEXT NOT NULL,
			position INT NOT NULL,
			id UUID,
			payer TEXT NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (session_id, party_name, position),
			FOREIGN KEY (session_id, party_name) REFERENCES parties(session_id, name) ON DELETE CASCADE
		);
	`)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
