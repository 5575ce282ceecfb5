package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"loanshop/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer token issued by the login
// endpoint. When auth is disabled in config, requests pass through.
func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				unauthorized(w, "Missing bearer token.")
				return
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "Rejected bearer token",
					slog.String("path", r.URL.Path), slog.Any("error", err))
				unauthorized(w, "Invalid or expired token.")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":{"message":%q}}`, message)
}
