package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/auth"
)

// exportPath is guarded even for GET: the download carries the whole stock list.
const exportPath = "/api/v1/export"

// RequiresAuth reports whether r changes the inventory or exports it.
// Reads, probes, scrapes and the /ws feed stay open.
func RequiresAuth(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return r.URL.Path == exportPath
	case http.MethodOptions:
		return false
	default:
		return true
	}
}

// Auth returns a middleware that authenticates the requests RequiresAuth
// selects and stores the principal in the request context.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RequiresAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", getRequestID(r)),
					zap.Error(err),
				)
				writeAuthError(w, authenticator.Mode(), err)
				return
			}

			logger.Debug("authenticated",
				zap.String("subject", principal.Subject),
				zap.String("mode", string(principal.Mode)),
				zap.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// writeAuthError answers 401 with a challenge for the configured mode.
func writeAuthError(w http.ResponseWriter, mode auth.Mode, err error) {
	switch mode {
	case auth.ModeBasic:
		w.Header().Set("WWW-Authenticate", `Basic realm="ferreteria"`)
	case auth.ModeAPIKey:
		w.Header().Set("WWW-Authenticate", "API-Key")
	}

	message := "authentication required"
	if !errors.Is(err, auth.ErrNoCredentials) {
		message = "invalid credentials"
	}

	writeJSONError(w, http.StatusUnauthorized, message)
}
