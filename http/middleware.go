package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/audit"
)

// RequestIDHeader is read from inbound requests. It is never added to
// responses.
const RequestIDHeader = "X-Request-Id"

type contextKey struct{}

// Authenticator decides whether a request may reach the protocol engine.
type Authenticator interface {
	Authenticate(r *http.Request) davgate.AuthResult
}

// Auditor receives denied requests. Record must not block.
type Auditor interface {
	Record(audit.Record)
}

type AuthMiddlewareConfig struct {
	// Metrics counts decisions when set.
	Metrics *Metrics
	// Auditor receives every denial when set.
	Auditor Auditor
}

// AuthMiddleware rejects every request the gate denies with the fixed 401
// response. Allowed requests are passed on untouched. gate must not be nil.
func AuthMiddleware(gate Authenticator, cfg AuthMiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := gate.Authenticate(r)

			if cfg.Metrics != nil {
				cfg.Metrics.AuthDecisions.WithLabelValues(result.Decision.String(), reasonLabel(result.Reason)).Inc()
			}

			if !result.Allowed() {
				if cfg.Auditor != nil {
					cfg.Auditor.Record(audit.Record{
						ID:            uuid.New(),
						Time:          time.Now().UTC(),
						RequestID:     RequestIDFromContext(r.Context()),
						ClientAddress: result.ClientAddress,
						Method:        r.Method,
						Path:          r.URL.Path,
						Reason:        string(result.Reason),
					})
				}
				HandleError(w, fmt.Errorf("authenticate %s: %w", result.Reason, davgate.ErrUnauthorized))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reasonLabel(reason davgate.DenyReason) string {
	if reason == davgate.ReasonNone {
		return "none"
	}
	return string(reason)
}

// RequestIDMiddleware attaches a request ID to the context, reusing a sane
// inbound X-Request-Id and generating one otherwise.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.New().String()
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
	})
}

// RequestIDFromContext returns the ID set by RequestIDMiddleware, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func validRequestID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// LoggingMiddleware writes one debug line per request.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Debug("request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"client_ip", davgate.ClientAddress(r.Header),
			)
		})
	}
}
