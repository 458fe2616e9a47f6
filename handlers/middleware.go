package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskhub/taskhub/services"
)

type contextKey string

const userIDContextKey contextKey = "userID"

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondMsg(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		// Extract token from Bearer format
		authParts := strings.Split(authHeader, " ")
		if len(authParts) != 2 || authParts[0] != "Bearer" {
			respondMsg(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		tokenString := authParts[1]

		// Verify token
		userID, err := m.authService.VerifyJWT(tokenString)
		if err != nil {
			respondMsg(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID pulls the authenticated user id set by the middleware out of the
// request context.
func userID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(userIDContextKey).(string)
	return id, ok
}
