// Package dav adapts golang.org/x/net/webdav into the protocol engine the
// gateway delegates authenticated requests to.
package dav

import (
	"log/slog"
	"net/http"

	"golang.org/x/net/webdav"
)

// Engine serves WebDAV requests against a file system and a lock system that
// are configured once and shared by every request.
type Engine struct {
	fs     webdav.FileSystem
	ls     webdav.LockSystem
	logger *slog.Logger
}

// NewEngine creates an Engine. A nil logger defaults to slog.Default().
func NewEngine(fs webdav.FileSystem, ls webdav.LockSystem, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{fs: fs, ls: ls, logger: logger}
}

// Handle serves r. When prefix is non-empty it is stripped from the request
// path and prepended to every generated href, so the engine's path space
// starts at its own root.
func (e *Engine) Handle(w http.ResponseWriter, r *http.Request, prefix string) {
	h := &webdav.Handler{
		Prefix:     prefix,
		FileSystem: e.fs,
		LockSystem: e.ls,
		Logger:     e.logRequest,
	}
	h.ServeHTTP(w, r)
}

func (e *Engine) logRequest(r *http.Request, err error) {
	if err != nil {
		e.logger.Warn("webdav request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		return
	}

	e.logger.Debug("webdav request",
		"method", r.Method,
		"path", r.URL.Path,
	)
}
