package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	"wya-server/utils/errors"
)

// ErrorMiddleware recovers panics and answers with the standard JSON error.
func ErrorMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

var errorLogger = zap.NewNop()

// SetErrorLogger sets the logger WriteError reports server errors to.
func SetErrorLogger(logger *zap.Logger) {
	if logger != nil {
		errorLogger = logger
	}
}

// WriteError writes err as {"error": ..., "code": ...} with its HTTP status.
// Anything that is not an APIError becomes a 500.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		apiErr = errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	}
	// Log server errors
	if apiErr.Status >= 500 {
		errorLogger.Error("server error",
			zap.String("code", apiErr.Code),
			zap.String("message", apiErr.Message),
			zap.String("details", apiErr.Details),
		)
	}

	WriteJSON(w, apiErr.Status, apiErr)
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		errorLogger.Warn("failed to encode response", zap.Error(err))
	}
}
