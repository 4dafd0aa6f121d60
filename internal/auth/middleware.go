package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jonathan/study-agent/internal/users"
)

// ContextKey is a typed key for context values.
type ContextKey string

const usernameKey ContextKey = "username"

// UnauthorizedMessage is the body of every 401 response.
const UnauthorizedMessage = "Could not validate credentials"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// UserLookup resolves a username to a stored user.
type UserLookup interface {
	Get(ctx context.Context, username string) (*users.User, error)
}

// Middleware rejects requests without a valid bearer token for a known user
// and stores the username in the request context.
func Middleware(tokens TokenValidator, lookup UserLookup, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				log.Debug("rejected access token", "err", err)
				unauthorized(w)
				return
			}

			if _, err := lookup.Get(r.Context(), claims.Username()); err != nil {
				log.Debug("token subject not found", "username", claims.Username(), "err", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, claims.Username())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Username returns the authenticated username stored by Middleware.
func Username(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// WithUsername returns a context carrying username, as Middleware would.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": UnauthorizedMessage})
}
