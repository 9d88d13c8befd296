package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"repvote/internal/domain"
	"repvote/internal/service/auth"
	"repvote/pkg/errors"
	"repvote/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// IdentityContextKey is the key for the authenticated identity in context
	IdentityContextKey ContextKey = "identity"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// Auth creates an authentication middleware
func Auth(authService *auth.Service, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Token is required"), logger)
				return
			}

			ctx := r.Context()
			identity, err := authService.ValidateToken(ctx, token)
			if err != nil {
				logger.WithError(err).Error("Token validation failed")
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid or expired token"), logger)
				return
			}

			ctx = context.WithValue(ctx, IdentityContextKey, identity)
			r = r.WithContext(ctx)

			logger.WithField("sub", identity.Sub).Debug("Request authenticated")

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route group to one role. Must run after Auth.
func RequireRole(role string, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				writeErrorResponse(w, errors.NewAuthenticationError("Authentication required"), logger)
				return
			}
			if identity.Role != role {
				writeErrorResponse(w, errors.NewAuthorizationError("Insufficient role for this operation"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext extracts the authenticated identity, nil when absent
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*domain.Identity)
	return identity
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			r = r.WithContext(ctx)

			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r)
		})
	}
}

// generateRequestID generates a simple request ID
func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).Error("Request error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	timestamp := time.Now().UTC().Format(time.RFC3339)
	w.Write([]byte(`{"error":{"type":"` + string(appErr.Type) + `","message":"` + appErr.Message + `","timestamp":"` + timestamp + `"}}`))
}
