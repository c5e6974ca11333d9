// Package database connects davgate to the backend that stores its
// denied-request audit trail.
//
// # Supported Backends
//
//   - PostgreSQL, using a pgx connection pool
//   - SQLite, using modernc.org/sqlite (no cgo)
//
// # Usage
//
//	store, cleanup, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "davgate-audit.db",
//	    Tables: davgate.Tables{Audit: "davgate_auth_failures"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// Connect opens the connection, runs migrations and validates the schema
// before returning a Store ready for audit.NewService.
package database
