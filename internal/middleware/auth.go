package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Seedgta1/N8/internal/domain/accounts"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticator verifies bearer tokens
type Authenticator interface {
	Authenticate(token string) (accounts.Principal, error)
}

// WithPrincipal stores the caller in ctx
func WithPrincipal(ctx context.Context, p accounts.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller; zero value means anonymous
func PrincipalFrom(ctx context.Context) accounts.Principal {
	p, _ := ctx.Value(principalKey).(accounts.Principal)
	return p
}

var errMalformedAuth = errors.New("invalid Authorization header format")

func bearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMalformedAuth
	}
	return strings.TrimSpace(token), nil
}

// Authenticate resolves the bearer token when present. Requests without a
// token continue anonymously; a bad token is rejected.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := a.Authenticate(token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireUser rejects anonymous callers
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFrom(r.Context()).UserID == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin only lets the administrator through
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFrom(r.Context())
		switch {
		case p.UserID == "":
			http.Error(w, "authentication required", http.StatusUnauthorized)
		case !p.Admin:
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
