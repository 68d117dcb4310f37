package auth

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the key for ModeAPIKey.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthenticator matches the X-API-Key header against named keys.
type APIKeyAuthenticator struct {
	keys map[string]string // key -> owner
}

// NewAPIKeyAuthenticator parses "key:owner,key:owner".
func NewAPIKeyAuthenticator(keysConfig string) (*APIKeyAuthenticator, error) {
	keys, err := parsePairs("apikey auth", keysConfig)
	if err != nil {
		return nil, err
	}
	return &APIKeyAuthenticator{keys: keys}, nil
}

// Authenticate implements Authenticator. Every configured key is compared
// in constant time, even after a match.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	presented := r.Header.Get(APIKeyHeader)
	if presented == "" {
		return nil, ErrNoCredentials
	}

	owner := ""
	for key, name := range a.keys {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
			owner = name
		}
	}
	if owner == "" {
		return nil, ErrInvalidAPIKey
	}

	return &Principal{Mode: ModeAPIKey, Subject: owner}, nil
}

// Mode implements Authenticator.
func (a *APIKeyAuthenticator) Mode() Mode {
	return ModeAPIKey
}
