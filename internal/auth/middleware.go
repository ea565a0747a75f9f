// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

// Identity is the resolved caller passed into service operations, keeping
// authorization out of the business logic.
type Identity struct {
	UserID uint
	Role   string
}

func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

// CallerIdentity extracts the identity placed in the context by
// JWTMiddleware.
func CallerIdentity(r *http.Request) (Identity, bool) {
	userID, ok := r.Context().Value(userIDKey).(uint)
	if !ok {
		return Identity{}, false
	}
	role, _ := r.Context().Value(roleKey).(string)
	return Identity{UserID: userID, Role: role}, true
}

func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apperrors.WriteJSON(w, apperrors.Auth("authorization header required"))
				return
			}

			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
				apperrors.WriteJSON(w, apperrors.Auth("invalid token format"))
				return
			}

			token, err := jwt.ParseWithClaims(bearerToken[1], &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil {
				apperrors.WriteJSON(w, apperrors.Auth("invalid token"))
				return
			}

			claims, ok := token.Claims.(*jwt.MapClaims)
			if !ok || !token.Valid {
				apperrors.WriteJSON(w, apperrors.Auth("invalid token claims"))
				return
			}

			userID, ok := (*claims)["user_id"].(float64)
			if !ok {
				apperrors.WriteJSON(w, apperrors.Auth("invalid user ID in token"))
				return
			}
			role, _ := (*claims)["role"].(string)

			ctx := context.WithValue(r.Context(), userIDKey, uint(userID))
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards admin-only routes. Must run after JWTMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := CallerIdentity(r)
		if !ok {
			apperrors.WriteJSON(w, apperrors.Auth("authentication required"))
			return
		}
		if !identity.IsAdmin() {
			apperrors.WriteJSON(w, apperrors.Auth("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
