// Package audit records requests denied by the authentication gate.
//
// Records are handed to a Service without blocking the request path and are
// written to a Store in batches by a background worker. Presented
// credentials are never part of a record.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record describes one denied request.
type Record struct {
	ID            uuid.UUID `json:"id"`
	Time          time.Time `json:"time"`
	RequestID     string    `json:"request_id"`
	ClientAddress string    `json:"client_address"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	Reason        string    `json:"reason"`
}

// ListQuery selects records for List, newest first.
type ListQuery struct {
	Since time.Time
	Limit int
}

// Store persists audit records.
type Store interface {
	Append(ctx context.Context, records ...Record) error
	List(ctx context.Context, query ListQuery) ([]Record, error)
}
