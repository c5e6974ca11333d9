// Package davgate provides the authentication gate and request routing layer
// that sits in front of a WebDAV protocol engine.
//
// A single static credential is turned into an HTTP Basic Authorization token
// once at startup. Every inbound request is then classified Allow or Deny by
// comparing its Authorization header against that token. Allowed requests are
// routed to the protocol engine, optionally with a configured mount prefix
// stripped from the path.
//
// # Key Components
//
//   - CredentialStore: immutable holder of the precomputed Basic token
//   - ClientAddress: diagnostic client identifier from X-Forwarded-For
//   - Gate: per-request Allow/Deny decision with warning logs on denial
//   - Router: stateless mount-prefix decision for the protocol engine
//
// # Example Usage
//
//	store := davgate.NewCredentialStore(davgate.Credential{
//	    Username: "alice",
//	    Password: "secret",
//	})
//	gate := davgate.NewGate(store, davgate.GateOptions{})
//
//	router, err := davgate.NewRouter("/dav")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if res := gate.Authenticate(r); res.Decision == davgate.Allow {
//	    decision := router.Route(r.URL.Path)
//	    engine.Handle(w, r, decision.Prefix)
//	}
//
// See the http package for the HTTP boundary and the dav package for the
// protocol engine adapter.
package davgate
