package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order on startup. Statements must be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS checkout_records (
		id UUID PRIMARY KEY,
		outcome TEXT NOT NULL,
		stage TEXT NOT NULL,
		amount_minor BIGINT NOT NULL,
		items JSONB NOT NULL DEFAULT '[]',
		order_id TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT NOT NULL DEFAULT '',
		failure_message TEXT NOT NULL DEFAULT '',
		agent_assigned BOOLEAN NOT NULL DEFAULT FALSE,
		reconciled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS checkout_records_outcome_idx
		ON checkout_records (outcome) WHERE reconciled = FALSE`,
}

// Apply runs all schema migrations against the database.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
