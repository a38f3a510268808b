package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ServiceAccount is the identity-provider credential file.
type ServiceAccount struct {
	ProjectID    string `json:"project_id"`
	ClientEmail  string `json:"client_email"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
}

// LoadServiceAccount reads and validates the credential file at path.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("identity: read service account: %w", err)
	}
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("identity: parse service account: %w", err)
	}
	if strings.TrimSpace(sa.ProjectID) == "" || strings.TrimSpace(sa.PrivateKey) == "" {
		return nil, errors.New("identity: service account needs project_id and private_key")
	}
	return &sa, nil
}

// Config returns an Ed25519 provider config for the service account. Empty
// issuer or audience default to values derived from the project id.
func (sa *ServiceAccount) Config(issuer, audience string) Config {
	if issuer == "" {
		issuer = "https://auth.rahal.app/" + sa.ProjectID
	}
	if audience == "" {
		audience = sa.ProjectID
	}
	return Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    []byte(sa.PrivateKey),
		Issuer:        issuer,
		Audience:      audience,
		KeyID:         sa.PrivateKeyID,
	}
}
