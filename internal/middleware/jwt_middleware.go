package middleware

import (
	"context"
	"net/http"
	"strings"

	"archreview/internal/auth"
	"archreview/internal/utils"
)

// ContextKey defines the type for context keys to avoid conflicts
type ContextKey string

// AdminIDKey stores the token subject of an authenticated request
const AdminIDKey ContextKey = "adminID"

// AdminJWTMiddleware validates admin JWT tokens and enforces role-based access.
// The caller needs at least one of requiredRoles; admin satisfies any role.
func AdminJWTMiddleware(secret []byte, requiredRoles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication token")
				return
			}

			claims, err := auth.ValidateAdminJWT(tokenString, secret)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if len(requiredRoles) > 0 && !hasAnyRole(claims, requiredRoles) {
				utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, claims.AdminID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.Header.Get("X-API-Key")
	}
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

func hasAnyRole(claims *auth.AdminClaims, required []auth.Role) bool {
	for _, role := range required {
		if claims.HasRole(role) {
			return true
		}
	}
	return false
}

// GetAdminID retrieves the admin ID from the request context
func GetAdminID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AdminIDKey).(string)
	return id, ok
}
