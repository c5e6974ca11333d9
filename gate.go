package davgate

import (
	"log/slog"
	"net/http"
)

// AuthorizationHeader is the request header carrying the presented credential.
const AuthorizationHeader = "Authorization"

const redacted = "[REDACTED]"

// GateOptions configures a Gate.
type GateOptions struct {
	// Logger receives the denial warnings. Defaults to slog.Default().
	Logger *slog.Logger
	// LogCredentials logs the raw presented Authorization value on mismatch.
	// When false only the claimed username is logged.
	LogCredentials bool
}

// Gate makes the per-request Allow/Deny decision against a CredentialStore.
// It holds no per-request state and is safe for concurrent use.
type Gate struct {
	store          *CredentialStore
	logger         *slog.Logger
	logCredentials bool
}

// NewGate creates a Gate backed by store.
func NewGate(store *CredentialStore, opts GateOptions) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gate{
		store:          store,
		logger:         logger,
		logCredentials: opts.LogCredentials,
	}
}

// Authenticate classifies r. A missing Authorization header or one that is
// not byte-equal to the stored token is denied and logged at warn level with
// the resolved client address. Only headers are read; the body is untouched.
func (g *Gate) Authenticate(r *http.Request) AuthResult {
	values := r.Header.Values(AuthorizationHeader)
	if len(values) == 0 {
		addr := ClientAddress(r.Header)
		g.logger.Warn("auth header missing",
			"client_ip", addr,
			"method", r.Method,
			"path", r.URL.Path,
		)
		return AuthResult{Decision: Deny, Reason: ReasonMissing, ClientAddress: addr}
	}

	presented := values[0]
	if g.store.Matches(presented) {
		return AuthResult{Decision: Allow}
	}

	addr := ClientAddress(r.Header)
	attrs := append(g.presentedAttrs(presented),
		"client_ip", addr,
		"method", r.Method,
		"path", r.URL.Path,
	)
	g.logger.Warn("invalid auth", attrs...)

	return AuthResult{Decision: Deny, Reason: ReasonMismatch, ClientAddress: addr}
}

func (g *Gate) presentedAttrs(presented string) []any {
	if g.logCredentials {
		return []any{"authorization", presented}
	}

	if cred, err := DecodeBasicAuthHeader(presented); err == nil {
		return []any{"username", cred.Username, "authorization", redacted}
	}

	return []any{"authorization", redacted}
}
