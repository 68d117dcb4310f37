// Package auth authenticates the clerks allowed to change the inventory.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Mode selects how mutating requests are authenticated.
type Mode string

const (
	// ModeNone leaves every route open.
	ModeNone Mode = "none"
	// ModeBasic checks HTTP Basic credentials against bcrypt hashes.
	ModeBasic Mode = "basic"
	// ModeAPIKey checks the X-API-Key header.
	ModeAPIKey Mode = "apikey"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNone, ModeBasic, ModeAPIKey:
		return true
	default:
		return false
	}
}

// Principal identifies who made an authenticated request.
type Principal struct {
	Mode    Mode
	Subject string
}

// Authenticator validates a request and returns its principal.
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
	Mode() Mode
}

// Sentinel errors for authentication failures.
var (
	ErrNoCredentials      = errors.New("no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAPIKey      = errors.New("invalid API key")
)

// New builds the authenticator for mode. ModeNone yields a nil
// authenticator, which callers treat as "no gate".
func New(mode Mode, basicUsers, apiKeys string) (Authenticator, error) {
	switch mode {
	case ModeNone, "":
		return nil, nil
	case ModeBasic:
		a, err := NewBasicAuthenticator(basicUsers)
		if err != nil {
			return nil, err
		}
		return a, nil
	case ModeAPIKey:
		a, err := NewAPIKeyAuthenticator(apiKeys)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

type contextKey string

const principalKey contextKey = "principal"

// FromContext retrieves the Principal stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// WithPrincipal stores p in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// parsePairs reads "left:right,left:right" lists. The split happens at
// the first colon so the right side may hold anything but a comma.
func parsePairs(kind, config string) (map[string]string, error) {
	trimmed := strings.TrimSpace(config)
	if trimmed == "" {
		return nil, fmt.Errorf("%s: config must not be empty", kind)
	}

	pairs := make(map[string]string)
	for entry := range strings.SplitSeq(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		left, right, found := strings.Cut(entry, ":")
		if !found {
			return nil, fmt.Errorf("%s: invalid entry %q, expected two parts separated by ':'", kind, entry)
		}
		left = strings.TrimSpace(left)
		right = strings.TrimSpace(right)
		if left == "" || right == "" {
			return nil, fmt.Errorf("%s: entry parts must not be empty", kind)
		}

		pairs[left] = right
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s: no valid entries found", kind)
	}
	return pairs, nil
}
