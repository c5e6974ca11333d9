package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the WebDAV surface.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthDecisions   *prometheus.CounterVec
}

// NewMetrics creates and registers all request metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "davgate",
				Name:      "requests_total",
				Help:      "Total number of requests by method and response status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "davgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AuthDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "davgate",
				Name:      "auth_decisions_total",
				Help:      "Authentication gate decisions",
			},
			[]string{"result", "reason"},
		),
	}
}

// AuditStats exposes the state of the audit queue.
type AuditStats interface {
	DroppedRecords() int64
	QueueDepth() int
	QueueCapacity() int
}

// RegisterAuditMetrics exports the audit queue through reg.
func RegisterAuditMetrics(reg prometheus.Registerer, stats AuditStats) {
	promauto.With(reg).NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: "davgate",
			Name:      "audit_drops_total",
			Help:      "Total audit records dropped because the queue was full",
		},
		func() float64 { return float64(stats.DroppedRecords()) },
	)
	promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "davgate",
			Name:      "audit_queue_depth",
			Help:      "Audit records waiting to be written",
		},
		func() float64 { return float64(stats.QueueDepth()) },
	)
}

// knownMethods bounds the method label; anything else is reported as OTHER.
var knownMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodDelete: true, http.MethodOptions: true,
	"PROPFIND": true, "PROPPATCH": true, "MKCOL": true,
	"COPY": true, "MOVE": true, "LOCK": true, "UNLOCK": true,
}

func methodLabel(method string) string {
	if knownMethods[method] {
		return method
	}
	return "OTHER"
}

// MetricsMiddleware records request count and duration.
func MetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			method := methodLabel(r.Method)
			metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
			metrics.RequestsTotal.WithLabelValues(method, strconv.Itoa(rec.status)).Inc()
		})
	}
}

// statusRecorder captures the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Flush delegates to the underlying ResponseWriter if it supports http.Flusher.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
