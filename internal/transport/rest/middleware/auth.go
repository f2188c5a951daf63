package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"feedbackdesk/internal/service"
)

type contextKey string

const (
	UserIDKey contextKey = "userId"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc, logger: logger}
}

// RequireAdmin validates the bearer JWT and requires the admin claim. A
// valid token without the claim is rejected with 403 and logged.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateAdminToken(token)
		if errors.Is(err, service.ErrNotAdmin) {
			m.logger.Warn("admin route rejected: missing admin claim",
				"user", claims.UserID, "method", r.Method, "path", r.URL.Path)
			http.Error(w, `{"error":"`+service.MsgForbidden+`"}`, http.StatusForbidden)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the admin user ID from context
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// ExtractBearerToken returns the token of an "Authorization: Bearer" header
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
