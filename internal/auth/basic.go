package auth

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthenticator checks HTTP Basic credentials against bcrypt hashes.
type BasicAuthenticator struct {
	hashes map[string][]byte // clerk -> bcrypt hash
}

// NewBasicAuthenticator parses "clerk:hash,clerk:hash". Every hash must be
// a well-formed bcrypt hash.
func NewBasicAuthenticator(usersConfig string) (*BasicAuthenticator, error) {
	pairs, err := parsePairs("basic auth", usersConfig)
	if err != nil {
		return nil, err
	}

	hashes := make(map[string][]byte, len(pairs))
	for user, hash := range pairs {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("basic auth: user %q: %w", user, err)
		}
		hashes[user] = []byte(hash)
	}

	return &BasicAuthenticator{hashes: hashes}, nil
}

// Authenticate implements Authenticator.
func (a *BasicAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	user, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrNoCredentials
	}

	hash, exists := a.hashes[user]
	if !exists {
		return nil, fmt.Errorf("%w: unknown user", ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
	}

	return &Principal{Mode: ModeBasic, Subject: user}, nil
}

// Mode implements Authenticator.
func (a *BasicAuthenticator) Mode() Mode {
	return ModeBasic
}
