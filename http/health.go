package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagarc03/davgate"
)

// Pinger is anything whose reachability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the JSON body of /healthz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// HealthChecker reports the state of the serving directory and, when
// configured, the audit trail.
type HealthChecker struct {
	storage    Pinger
	auditStore Pinger
	auditStats AuditStats
	version    string
	timeout    time.Duration
}

// NewHealthChecker creates a HealthChecker. auditStore and auditStats may be
// nil when auditing is disabled.
func NewHealthChecker(storage, auditStore Pinger, auditStats AuditStats, version string) *HealthChecker {
	return &HealthChecker{
		storage:    storage,
		auditStore: auditStore,
		auditStats: auditStats,
		version:    version,
		timeout:    2 * time.Second,
	}
}

// Check runs every check. An audit queue more than 90% full is unhealthy.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if err := h.storage.Ping(ctx); err != nil {
		checks["storage"] = "error: " + err.Error()
		healthy = false
	} else {
		checks["storage"] = "ok"
	}

	switch {
	case h.auditStore == nil:
		checks["audit_store"] = "not configured"
	case h.auditStore.Ping(ctx) != nil:
		checks["audit_store"] = "unreachable"
		healthy = false
	default:
		checks["audit_store"] = "ok"
	}

	if h.auditStats != nil {
		depth, capacity := h.auditStats.QueueDepth(), h.auditStats.QueueCapacity()
		percent := 0
		if capacity > 0 {
			percent = depth * 100 / capacity
		}
		if percent > 90 {
			checks["audit_queue"] = fmt.Sprintf("degraded: %d/%d (%d%%)", depth, capacity, percent)
			healthy = false
		} else {
			checks["audit_queue"] = fmt.Sprintf("ok: %d/%d (%d%%)", depth, capacity, percent)
		}
		if drops := h.auditStats.DroppedRecords(); drops > 0 {
			checks["audit_drops"] = fmt.Sprintf("%d dropped", drops)
		}
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{Status: status, Checks: checks, Version: h.version}
}

// ServeHTTP answers 200 when healthy and 503 otherwise.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Check(r.Context())

	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	_ = WriteJSON(w, code, health)
}

// AdminRouter serves /metrics and /healthz. It is meant for a separate
// listener and carries no authentication.
func AdminRouter(gatherer prometheus.Gatherer, health *HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Method(http.MethodGet, "/healthz", health)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, fmt.Errorf("admin route %s: %w", req.URL.Path, davgate.ErrNotFound))
	})
	return r
}
