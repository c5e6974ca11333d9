// Package lockbackend provides webdav.LockSystem implementations for the
// protocol engine.
package lockbackend

import (
	"fmt"

	"golang.org/x/net/webdav"
)

const (
	// BackendMemory tracks locks in memory and enforces conflicts.
	BackendMemory = "memory"
	// BackendFake grants every lock request without enforcing conflicts.
	BackendFake = "fake"
)

// Config selects the lock backend.
type Config struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memory fake"`
}

// New creates the lock system named by cfg.Backend.
func New(cfg Config) (webdav.LockSystem, error) {
	switch cfg.Backend {
	case BackendMemory:
		return webdav.NewMemLS(), nil
	case BackendFake:
		return NewFakeLockSystem(), nil
	default:
		return nil, fmt.Errorf("new lock system %q: %w", cfg.Backend, ErrUnknownBackend)
	}
}
