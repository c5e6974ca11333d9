// Package postgres stores audit records in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/audit"
)

var _ audit.Store = (*Repo)(nil)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables davgate.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: pgx.Identifier{tables.Audit}.Sanitize()}, nil
}

// Ping verifies database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Append inserts records as one batch. Records without an ID are given one.
func (r *Repo) Append(ctx context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, occurred_at, request_id, client_address, method, path, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tableName)

	batch := &pgx.Batch{}
	for _, rec := range records {
		id := rec.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(query, id, rec.Time.UTC(), rec.RequestID, rec.ClientAddress, rec.Method, rec.Path, rec.Reason)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

// List returns records at or after query.Since, newest first.
func (r *Repo) List(ctx context.Context, q audit.ListQuery) ([]audit.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, occurred_at, request_id, client_address, method, path, reason
		FROM %s
		WHERE occurred_at >= $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, q.Since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var records []audit.Record
	for rows.Next() {
		var rec audit.Record
		if err := rows.Scan(&rec.ID, &rec.Time, &rec.RequestID, &rec.ClientAddress, &rec.Method, &rec.Path, &rec.Reason); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		rec.Time = rec.Time.UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}
	return records, nil
}
