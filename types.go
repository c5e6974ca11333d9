package davgate

import (
	"errors"
	"fmt"
	"regexp"
)

// Decision is the binary outcome of the authentication gate.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	default:
		return "deny"
	}
}

// DenyReason says why a request was denied.
type DenyReason string

const (
	ReasonNone     DenyReason = ""
	ReasonMissing  DenyReason = "missing"
	ReasonMismatch DenyReason = "mismatch"
)

// AuthResult is the request-scoped output of Gate.Authenticate.
type AuthResult struct {
	Decision Decision
	Reason   DenyReason
	// ClientAddress is only resolved for denied requests.
	ClientAddress string
}

// Allowed reports whether the request may proceed to the protocol engine.
func (r AuthResult) Allowed() bool {
	return r.Decision == Allow
}

// RouteDecision carries the mount prefix the protocol engine should strip.
// An empty Prefix means the request is forwarded unmodified.
type RouteDecision struct {
	Prefix string
}

// HasPrefix reports whether a prefix should be stripped.
func (d RouteDecision) HasPrefix() bool {
	return d.Prefix != ""
}

// Tables holds configurable table names for audit storage.
type Tables struct {
	Audit string `mapstructure:"audit" validate:"required,tablename"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Audit == "" {
		return errors.New("validate tables: audit table name cannot be empty")
	}

	if !IsValidTableName(t.Audit) {
		return fmt.Errorf("validate tables: invalid audit table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Audit)
	}

	return nil
}
