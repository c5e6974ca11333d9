// Package http puts the authentication gate in front of the WebDAV engine.
//
// Every request on the WebDAV listener goes through a single wildcard route
// that accepts any method. AuthMiddleware asks the gate for a decision:
// denied requests get a fixed 401 with a Basic challenge and never reach
// the engine, allowed requests are handed to the Engine together with the
// prefix chosen by the davgate.Router. Nothing in this package alters the
// request or the engine's response.
//
// # Usage
//
//	router, _ := davgate.NewRouter("/dav")
//	gate := davgate.NewGate(davgate.NewCredentialStore(cred), davgate.GateOptions{})
//	engine := dav.NewEngine(fs, webdav.NewMemLS(), logger)
//
//	h := http.NewHandler(&http.HandlerConfig{Router: router}, gate, engine)
//	srv := &stdhttp.Server{Addr: "127.0.0.1:4918", Handler: h.Router()}
//
// # Admin surface
//
// Metrics and health are served by AdminRouter on a separate listener:
//
//	reg := prometheus.NewRegistry()
//	metrics := http.NewMetrics(reg)
//	admin := http.AdminRouter(reg, http.NewHealthChecker(store, nil, nil, version))
//
// The admin router carries no authentication and should only be bound to a
// trusted interface.
package http
