package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// Claims carries the token fields the middleware layer consumes. The
// full JWT claim set stays in the auth package; handlers only need the
// authenticated subject.
type Claims struct {
	UserID string `json:"user_id"`
}

// TokenValidator validates a JWT access token and returns its claims.
// A failed validation must wrap apperrors.ErrTokenExpired when the token
// is well-formed but past its expiry, so the middleware can tell clients
// to refresh instead of re-authenticating.
type TokenValidator func(token string) (*Claims, error)

// Auth validates bearer tokens and injects user claims into context.
// A missing or malformed header yields 401, an expired token yields 401
// with code TOKEN_EXPIRED, and any other invalid token yields 403.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
				return
			}

			claims, err := validate(parts[1])
			if err != nil {
				if errors.Is(err, apperrors.ErrTokenExpired) {
					writeAuthError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "access token expired")
					return
				}
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
