// Package sqlite stores audit records in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/audit"
)

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var _ audit.Store = (*Repo)(nil)

type Repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tables davgate.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: tables.Audit}, nil
}

// Ping verifies database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append inserts records in a single transaction. Records without an ID are
// given one.
func (r *Repo) Append(ctx context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, occurred_at, request_id, client_address, method, path, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("append: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		id := rec.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		_, err := stmt.ExecContext(ctx,
			id.String(), rec.Time.UTC().Format(timeLayout), rec.RequestID,
			rec.ClientAddress, rec.Method, rec.Path, rec.Reason,
		)
		if err != nil {
			return fmt.Errorf("append: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append: commit: %w", err)
	}
	return nil
}

// List returns records at or after query.Since, newest first.
func (r *Repo) List(ctx context.Context, q audit.ListQuery) ([]audit.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, occurred_at, request_id, client_address, method, path, reason
		FROM %s
		WHERE occurred_at >= ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, quoteIdentifier(r.tableName))

	rows, err := r.db.QueryContext(ctx, query, q.Since.UTC().Format(timeLayout), limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []audit.Record
	for rows.Next() {
		var rec audit.Record
		var idStr, occurredAt string

		if err := rows.Scan(&idStr, &occurredAt, &rec.RequestID, &rec.ClientAddress, &rec.Method, &rec.Path, &rec.Reason); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}

		rec.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("list: parse uuid: %w", err)
		}

		rec.Time, err = time.Parse(timeLayout, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("list: parse occurred_at: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}
	return records, nil
}
