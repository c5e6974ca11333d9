package davgate

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// BasicScheme is the Authorization scheme prefix, including the trailing space.
const BasicScheme = "Basic "

// Credential is the username and password pair supplied at startup.
type Credential struct {
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

// BasicAuthHeader returns the Authorization header value for the given
// username and password: "Basic " + base64(username + ":" + password).
// Any byte sequence is accepted, including empty strings.
func BasicAuthHeader(username, password string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return BasicScheme + encoded
}

// DecodeBasicAuthHeader recovers the credential from a Basic Authorization
// header value. The password is everything after the first colon.
func DecodeBasicAuthHeader(value string) (Credential, error) {
	encoded, ok := strings.CutPrefix(value, BasicScheme)
	if !ok {
		return Credential{}, fmt.Errorf("decode basic auth: missing scheme: %w", ErrInvalidInput)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Credential{}, fmt.Errorf("decode basic auth: %w", ErrInvalidInput)
	}

	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Credential{}, fmt.Errorf("decode basic auth: missing separator: %w", ErrInvalidInput)
	}

	return Credential{Username: username, Password: password}, nil
}

// CredentialStore holds the precomputed Authorization token for the process
// lifetime. It is immutable after construction and safe for concurrent use.
type CredentialStore struct {
	token string
}

// NewCredentialStore derives the token from cred. The raw credential is not
// retained.
func NewCredentialStore(cred Credential) *CredentialStore {
	return &CredentialStore{token: BasicAuthHeader(cred.Username, cred.Password)}
}

// Token returns the expected Authorization header value.
func (s *CredentialStore) Token() string {
	return s.token
}

// Matches reports whether presented is byte-equal to the stored token.
func (s *CredentialStore) Matches(presented string) bool {
	return presented == s.token
}
