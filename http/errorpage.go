package http

import (
	"io"
	"net/http"
)

// Realm is advertised in the Basic challenge of every rejection.
const Realm = "User Visible Realm"

const unauthorizedBody = "Nice try."

// writeUnauthorized sends the fixed rejection: 401 with a Basic challenge
// and a short HTML body.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, unauthorizedBody)
}
