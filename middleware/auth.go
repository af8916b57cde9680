package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"smartpen/internal/auth"
	"smartpen/pkg/apperr"
	"smartpen/pkg/logger"
	"smartpen/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "userID"

// UserID returns the authenticated caller, or "" if the request did not pass
// through AuthMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// WithUserID is used by tests and by AuthMiddleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// AuthMiddleware rejects requests without a valid bearer token before any
// handler runs.
func AuthMiddleware(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Browsers cannot set headers on WebSocket requests, so /ws
			// clients pass the token in the query string.
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				}
			}

			if tokenString == "" {
				response.Error(w, r, fmt.Errorf("%w: no token provided", apperr.ErrUnauthorized))
				return
			}

			userID, err := tokens.Verify(tokenString)
			if err != nil {
				logger.Sugar.Infof("Invalid token: %v", err)
				response.Error(w, r, fmt.Errorf("%w: could not validate credentials", apperr.ErrUnauthorized))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
