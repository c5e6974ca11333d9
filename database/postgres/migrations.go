package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/davgate"
)

// Migrate creates every table davgate needs. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables davgate.Tables) error {
	if err := createAuditTable(ctx, pool, tables.Audit); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Audit, err)
	}
	return nil
}

// DropTables removes every table created by Migrate.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables davgate.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tables.Audit}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Audit, err)
	}
	return nil
}

func createAuditTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexOccurredAt := pgx.Identifier{fmt.Sprintf("idx_%s_occurred_at", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			request_id TEXT NOT NULL,
			client_address TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			reason TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (occurred_at DESC);
	`,
		quotedTable,
		indexOccurredAt, quotedTable,
	)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}
