package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/davgate"
)

// quoteIdentifier quotes a SQLite identifier. Names are validated by
// davgate.Tables.Validate before they reach SQL.
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

func getTableMigrations(tables davgate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Audit,
			Up:        createAuditTable(tables.Audit),
			Down:      dropTable(tables.Audit),
		},
	}
}

// Migrate creates every table davgate needs. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, tables davgate.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// DropTables removes every table created by Migrate, in reverse order.
func DropTables(ctx context.Context, db *sql.DB, tables davgate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createAuditTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexOccurredAt := quoteIdentifier(fmt.Sprintf("idx_%s_occurred_at", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				occurred_at TEXT NOT NULL,
				request_id TEXT NOT NULL,
				client_address TEXT NOT NULL,
				method TEXT NOT NULL,
				path TEXT NOT NULL,
				reason TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (occurred_at)
		`, indexOccurredAt, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index occurred_at: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
