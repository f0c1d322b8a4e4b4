package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin lets only admins through. It must run after AuthMiddleware.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role, ok := GetUserRole(r.Context()); !ok || !role.IsAdmin() {
				userID, _ := GetUserID(r.Context())
				logger.Warn("Admin route refused",
					zap.String("user_id", userID.String()),
					zap.String("role", role.String()),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
