package middleware

import (
	"context"
	"net/http"
	"strings"

	"wya-server/services"
	"wya-server/utils/errors"
)

type contextKey string

const schedulerKey contextKey = "scheduler"

// CronAuthMiddleware requires a bearer token carrying the cron scope.
// A nil auth leaves the routes open.
func CronAuthMiddleware(auth *services.CronAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				next.ServeHTTP(w, r)
				return
			}
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			subject, err := auth.Verify(tokenString)
			if err != nil {
				WriteError(w, errors.ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), schedulerKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Scheduler returns the token subject set by CronAuthMiddleware.
func Scheduler(ctx context.Context) string {
	s, _ := ctx.Value(schedulerKey).(string)
	return s
}
