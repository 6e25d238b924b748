package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ServiceAccount is the subset of a Google service-account key file the
// service needs to check before handing the raw bytes to the SDK.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`

	raw []byte
}

// JSON returns the bundle exactly as read from disk.
func (sa *ServiceAccount) JSON() []byte {
	return sa.raw
}

// LoadServiceAccount reads and checks a service-account credential bundle.
// A missing file, invalid JSON or missing key material is an error.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading credential bundle %s: %w", path, err)
	}
	return ParseServiceAccount(data)
}

// ParseServiceAccount checks an in-memory credential bundle.
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("error parsing credential bundle: %w", err)
	}

	if sa.Type != "service_account" {
		return nil, fmt.Errorf("credential bundle has type %q, want service_account", sa.Type)
	}

	var missing []string
	if sa.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if sa.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if !strings.Contains(sa.PrivateKey, "PRIVATE KEY") {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("credential bundle is missing %s", strings.Join(missing, ", "))
	}

	sa.raw = data
	return &sa, nil
}
