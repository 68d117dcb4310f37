package middleware

import (
	"net/http"
	"strings"
)

// CORSOptions lists what the CORS middleware advertises.
type CORSOptions struct {
	Origins []string
	Methods []string
	Headers []string
}

// CORS answers preflight requests and decorates responses for allowed origins.
// Credentials are only allowed for explicitly listed origins.
func CORS(opts CORSOptions) Middleware {
	allowed := make(map[string]bool, len(opts.Origins))
	for _, origin := range opts.Origins {
		allowed[origin] = true
	}
	anyOrigin := allowed["*"]
	methods := strings.Join(opts.Methods, ", ")
	headers := strings.Join(opts.Headers, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")

			switch {
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", origin)
			case allowed[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
