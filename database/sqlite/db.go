package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/database/internal/schema"
)

var auditTableSchema = map[string]schema.Column{
	"id":             {Type: "text"},
	"occurred_at":    {Type: "text"},
	"request_id":     {Type: "text"},
	"client_address": {Type: "text"},
	"method":         {Type: "text"},
	"path":           {Type: "text"},
	"reason":         {Type: "text"},
}

type tableValidation struct {
	tableName      string
	expectedSchema map[string]schema.Column
}

func getTableValidations(tables davgate.Tables) []tableValidation {
	return []tableValidation{
		{tableName: tables.Audit, expectedSchema: auditTableSchema},
	}
}

// ValidateSchema checks that every table matches the columns Migrate creates.
func ValidateSchema(ctx context.Context, db *sql.DB, tables davgate.Tables) error {
	for _, v := range getTableValidations(tables) {
		if err := validateTableSchema(ctx, db, v.tableName, v.expectedSchema); err != nil {
			return fmt.Errorf("validate schema %s: %w", v.tableName, err)
		}
	}

	return nil
}

func validateTableSchema(ctx context.Context, db *sql.DB, tableName string, expected map[string]schema.Column) error {
	if !davgate.IsValidTableName(tableName) {
		return fmt.Errorf("validate table schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("validate table schema: table %s does not exist", tableName)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName)))
	if err != nil {
		return fmt.Errorf("validate table schema: query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	actual := make(map[string]schema.Column)
	for rows.Next() {
		var (
			cid       int
			name      string
			dataType  string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("validate table schema: scan column: %w", err)
		}
		actual[name] = schema.Column{Type: dataType, Nullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate table schema: rows error: %w", err)
	}

	return schema.Compare(tableName, expected, actual)
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, tableName,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}
