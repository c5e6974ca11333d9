package davgate

import (
	"fmt"
	"strings"
)

// Router decides whether the configured mount prefix should be stripped
// before a request is handed to the protocol engine. It is a pure function of
// the configured prefix and the request path.
type Router struct {
	prefix string
}

// NewRouter creates a Router for the given mount prefix. An empty prefix
// routes every request unmodified.
func NewRouter(prefix string) (*Router, error) {
	normalized, err := NormalizePrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("new router: %w", err)
	}
	return &Router{prefix: normalized}, nil
}

// Prefix returns the normalized mount prefix.
func (rt *Router) Prefix() string {
	return rt.prefix
}

// Route returns a decision carrying the prefix when path is the prefix itself
// or lies beneath it. "/dav" matches "/dav" and "/dav/x" but not "/davx".
func (rt *Router) Route(path string) RouteDecision {
	if rt.prefix == "" {
		return RouteDecision{}
	}

	rest, ok := strings.CutPrefix(path, rt.prefix)
	if !ok {
		return RouteDecision{}
	}

	if rest != "" && rest[0] != '/' {
		return RouteDecision{}
	}

	return RouteDecision{Prefix: rt.prefix}
}
