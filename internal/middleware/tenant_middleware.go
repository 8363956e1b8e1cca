package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"ai_orchestrator/internal/auth"
	"ai_orchestrator/internal/utils"
)

// ContextKey is the type for request context keys set by middleware.
type ContextKey string

const (
	// TenantIDKey holds the authenticated tenant's uuid.UUID
	TenantIDKey ContextKey = "tenantID"

	// UserIDKey holds the acting user's identifier, if present
	UserIDKey ContextKey = "userID"
)

// TenantMiddleware validates the bearer token and embeds the tenant
// identity into the request context. Every orchestration and settings
// endpoint sits behind it.
func TenantMiddleware(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication token")
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			claims, err := auth.ValidateToken(tokenString, jwtSecret)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid tenant claim")
				return
			}

			ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenantID retrieves the tenant ID from the request context
func GetTenantID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return id, ok
}

// GetUserID retrieves the user ID from the request context
func GetUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}
