package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/davgate"
)

// webdavMethods are the RFC 4918 methods chi does not know about.
var webdavMethods = []string{"PROPFIND", "PROPPATCH", "MKCOL", "COPY", "MOVE", "LOCK", "UNLOCK"}

func init() {
	// Must run before any route is registered: chi snapshots its method set
	// when a wildcard route is added.
	for _, m := range webdavMethods {
		chi.RegisterMethod(m)
	}
}

// Engine serves a request after the prefix has been stripped from its path.
type Engine interface {
	Handle(w http.ResponseWriter, r *http.Request, prefix string)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// Router selects the prefix to strip. Nil serves everything unprefixed.
	Router  *davgate.Router
	CORS    CORSConfig
	Metrics *Metrics
	Auditor Auditor
	// Logger receives per-request debug lines when set.
	Logger *slog.Logger
}

// Handler is the single guarded entry point in front of the engine.
type Handler struct {
	config HandlerConfig
	gate   Authenticator
	engine Engine
}

// NewHandler creates a Handler. gate and engine must not be nil.
func NewHandler(config *HandlerConfig, gate Authenticator, engine Engine) *Handler {
	cfg := *config
	if cfg.Router == nil {
		cfg.Router, _ = davgate.NewRouter("")
	}

	return &Handler{
		config: cfg,
		gate:   gate,
		engine: engine,
	}
}

// Router returns the http.Handler for the WebDAV listener: one wildcard
// route accepting any method, every request passing through the gate first.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	if h.config.Logger != nil {
		r.Use(LoggingMiddleware(h.config.Logger))
	}
	if h.config.Metrics != nil {
		r.Use(MetricsMiddleware(h.config.Metrics))
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(AuthMiddleware(h.gate, AuthMiddlewareConfig{
		Metrics: h.config.Metrics,
		Auditor: h.config.Auditor,
	}))

	r.Handle("/*", http.HandlerFunc(h.serveDAV))
	// Methods chi has never heard of still belong to the engine, which
	// answers them itself. Middleware has already run by this point.
	r.MethodNotAllowed(h.serveDAV)
	r.NotFound(h.serveDAV)

	return r
}

func (h *Handler) serveDAV(w http.ResponseWriter, r *http.Request) {
	decision := h.config.Router.Route(r.URL.Path)
	if !decision.HasPrefix() && h.config.Router.Prefix() != "" && h.config.Logger != nil {
		h.config.Logger.Debug("request outside mount prefix, serving unstripped",
			"path", r.URL.Path,
			"prefix", h.config.Router.Prefix(),
		)
	}
	h.engine.Handle(w, r, decision.Prefix)
}
