// Package middleware provides HTTP middleware for authentication, authorization and rate limiting.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/roster"
)

// Auth validates the JWT token from the Authorization header and
// injects the user's ID, role and status into the request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authorization header required")
				return
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || raw == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid authorization format. Use: Bearer <token>")
				return
			}

			token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid token claims")
				return
			}

			userID, _ := claims["userId"].(string)
			role, _ := claims["role"].(string)
			status, _ := claims["status"].(string)

			if userID == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid token: missing user ID")
				return
			}
			if !roster.Role(role).IsValid() {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid token: unknown role")
				return
			}

			ctx := ctxkeys.WithActor(r.Context(), roster.Actor{
				UserID: userID,
				Role:   roster.Role(role),
				Status: roster.Status(status),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMinRole restricts access to users at or above minRole in the
// hierarchy MR < ASM < RM < ZM < ADMIN.
func RequireMinRole(minRole roster.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ctxkeys.Actor(r.Context()).Role.AtLeast(minRole) {
				writeError(w, http.StatusForbidden, "PERMISSION_DENIED", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
