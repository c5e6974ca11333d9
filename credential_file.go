package davgate

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadCredentialFile loads a credential from a JSON file of the form:
//
//	{"username": "alice", "password": "secret"}
//
// Empty values are kept as-is; whether they are acceptable is up to the caller.
func LoadCredentialFile(path string) (Credential, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return Credential{}, fmt.Errorf("read credential file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("parse credential file: %w", err)
	}

	return cred, nil
}
