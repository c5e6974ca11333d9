package davgate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizePrefix validates a mount prefix and returns its canonical form.
// "" and "/" mean no prefix and normalize to "". Otherwise the prefix must:
//   - start with "/"
//   - not contain ".." or "." segments
//   - not contain "//" (empty segments)
//   - not contain invalid characters: \ ? #
//   - be valid UTF-8 without control characters or whitespace
//
// A single trailing slash is removed, so "/dav/" normalizes to "/dav".
func NormalizePrefix(p string) (string, error) {
	if p == "" || p == "/" {
		return "", nil
	}

	if p[0] != '/' {
		return "", fmt.Errorf("normalize prefix %q: must start with /: %w", p, ErrInvalidInput)
	}

	p = strings.TrimSuffix(p, "/")

	if strings.Contains(p, "//") {
		return "", fmt.Errorf("normalize prefix %q: empty segment: %w", p, ErrInvalidInput)
	}

	if strings.ContainsAny(p, `\?#`) {
		return "", fmt.Errorf("normalize prefix %q: invalid character: %w", p, ErrInvalidInput)
	}

	if !utf8.ValidString(p) {
		return "", fmt.Errorf("normalize prefix %q: invalid utf-8: %w", p, ErrInvalidInput)
	}

	for _, seg := range strings.Split(p[1:], "/") {
		if seg == "" {
			return "", fmt.Errorf("normalize prefix %q: empty segment: %w", p, ErrInvalidInput)
		}
		if seg == "." || seg == ".." {
			return "", fmt.Errorf("normalize prefix %q: dot segment: %w", p, ErrInvalidInput)
		}
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return "", fmt.Errorf("normalize prefix %q: control or space character: %w", p, ErrInvalidInput)
		}
	}

	return p, nil
}
