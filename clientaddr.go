package davgate

import (
	"net/http"
	"strings"
)

const (
	// ForwardedForHeader is the header consulted for the client address.
	ForwardedForHeader = "X-Forwarded-For"
	// UnknownClientAddress is reported when no usable address is available.
	UnknownClientAddress = "Unknown IP"
)

// ClientAddress derives a diagnostic client identifier from the request
// headers. The value is attacker-controllable and must only be used for
// logging.
//
// The first comma-separated element of X-Forwarded-For is returned with
// surrounding whitespace trimmed. A missing header, a value containing bytes
// outside visible ASCII, or an empty first element yields UnknownClientAddress.
func ClientAddress(h http.Header) string {
	forwarded := h.Get(ForwardedForHeader)
	if forwarded == "" {
		return UnknownClientAddress
	}

	if !isHeaderText(forwarded) {
		return UnknownClientAddress
	}

	first, _, _ := strings.Cut(forwarded, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return UnknownClientAddress
	}

	return first
}

// isHeaderText reports whether s consists only of visible ASCII, space and tab.
func isHeaderText(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\t' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
