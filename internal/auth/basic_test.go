package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/auth"
)

func TestNewBasicAuthenticator(t *testing.T) {
	t.Parallel()

	hash := bcryptHash(t, "llave")

	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{name: "single user", config: "ana:" + hash},
		{name: "several users", config: "ana:" + hash + ",luis:" + hash},
		{name: "trailing comma", config: "ana:" + hash + ","},
		{name: "spaces around entries", config: " ana:" + hash + " , luis:" + hash + " "},
		{name: "empty", config: "", wantErr: true},
		{name: "whitespace only", config: "   ", wantErr: true},
		{name: "only commas", config: ",,", wantErr: true},
		{name: "no colon", config: "anahash", wantErr: true},
		{name: "empty user", config: ":" + hash, wantErr: true},
		{name: "empty hash", config: "ana:", wantErr: true},
		{name: "not a bcrypt hash", config: "ana:plaintext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			got, err := auth.NewBasicAuthenticator(tt.config)

			// Assert
			if tt.wantErr {
				if err == nil {
					t.Error("NewBasicAuthenticator() error = nil, want error")
				}
				if got != nil {
					t.Error("NewBasicAuthenticator() returned non-nil on error")
				}
				return
			}
			if err != nil {
				t.Errorf("NewBasicAuthenticator() unexpected error: %v", err)
			}
			if got == nil {
				t.Error("NewBasicAuthenticator() returned nil")
			}
		})
	}
}

func TestBasicAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	authenticator, err := auth.NewBasicAuthenticator("ana:" + bcryptHash(t, "llave-inglesa"))
	if err != nil {
		t.Fatalf("NewBasicAuthenticator() error = %v", err)
	}

	tests := []struct {
		name        string
		setAuth     bool
		user        string
		password    string
		wantErr     error
		wantSubject string
	}{
		{name: "valid", setAuth: true, user: "ana", password: "llave-inglesa", wantSubject: "ana"},
		{name: "no header", wantErr: auth.ErrNoCredentials},
		{name: "unknown user", setAuth: true, user: "luis", password: "llave-inglesa", wantErr: auth.ErrInvalidCredentials},
		{name: "wrong password", setAuth: true, user: "ana", password: "destornillador", wantErr: auth.ErrInvalidCredentials},
		{name: "empty password", setAuth: true, user: "ana", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(http.MethodPost, "/api/v1/items", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.password)
			}

			// Act
			p, err := authenticator.Authenticate(req)

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				if p != nil {
					t.Errorf("Authenticate() principal = %+v, want nil", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() unexpected error: %v", err)
			}
			if p.Subject != tt.wantSubject || p.Mode != auth.ModeBasic {
				t.Errorf("Authenticate() = %+v", p)
			}
		})
	}
}

func TestBasicAuthenticator_ImplementsAuthenticator(_ *testing.T) {
	var _ auth.Authenticator = (*auth.BasicAuthenticator)(nil)
}
