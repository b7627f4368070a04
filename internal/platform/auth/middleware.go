package auth

import (
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// Middleware provides HTTP middleware for bearer-token validation.
type Middleware struct {
	Config  Config
	Skipper Skipper
}

// NewMiddleware constructs a middleware that never guards health and metrics endpoints.
func NewMiddleware(cfg Config) Middleware {
	skipper := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	return Middleware{Config: cfg, Skipper: skipper}
}

// Wrap wraps an http.Handler with authentication.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Config.Disabled || (m.Skipper != nil && m.Skipper(r)) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := bearerToken(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		claims, err := Parse(token, m.Config)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ctx := WithToken(WithClaims(r.Context(), claims), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects requests whose claims carry none of the scopes. Requests that
// reached the handler without claims pass through only when auth is disabled.
func (m Middleware) Require(next http.HandlerFunc, scopes ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.Config.Disabled {
			next(w, r)
			return
		}
		claims, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}
		if !claims.HasAny(scopes...) {
			http.Error(w, "scope "+strings.Join(scopes, " or ")+" required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// RequireAll rejects requests whose claims lack any of the scopes. Handlers that
// forward the caller's token use it so a downstream 403 is reported here instead.
func (m Middleware) RequireAll(next http.HandlerFunc, scopes ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.Config.Disabled {
			next(w, r)
			return
		}
		claims, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}
		var missing []string
		for _, scope := range scopes {
			if !claims.HasScope(scope) {
				missing = append(missing, scope)
			}
		}
		if len(missing) > 0 {
			http.Error(w, "token forwarded upstream also needs scope "+strings.Join(missing, " and "), http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(header[len("Bearer "):]), nil
}
