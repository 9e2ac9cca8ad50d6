// internal/auth/middleware.go

package auth

import (
    "context"
    "net/http"
    "strings"

    "github.com/artmateapp/artmate-backend/internal/common/utils"
)

// Middleware protects routes by verifying the bearer token and loading the
// caller's identity into the request context.
type Middleware struct {
    secret string
}

func NewMiddleware(secret string) *Middleware {
    return &Middleware{secret: secret}
}

// Authenticate verifies the JWT access token and adds user information to
// the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        token := m.extractToken(r)
        if token == "" {
            utils.ErrorResponse(w, "Missing or invalid authorization header", http.StatusUnauthorized)
            return
        }

        claims, err := ValidateToken(token, m.secret)
        if err != nil {
            utils.ErrorResponse(w, "Invalid or expired token", http.StatusUnauthorized)
            return
        }

        if claims.Type != "access" {
            utils.ErrorResponse(w, "Invalid token type", http.StatusUnauthorized)
            return
        }

        ctx := context.WithValue(r.Context(), "userID", claims.UserID)
        ctx = context.WithValue(ctx, "username", claims.Username)

        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

// extractToken pulls the token out of a "Bearer <token>" header.
func (m *Middleware) extractToken(r *http.Request) string {
    authHeader := r.Header.Get("Authorization")
    if authHeader == "" {
        return ""
    }

    parts := strings.Split(authHeader, " ")
    if len(parts) != 2 || parts[0] != "Bearer" {
        return ""
    }

    return parts[1]
}

// GetUserIDFromContext extracts the authenticated user id from the context.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
    userID, ok := ctx.Value("userID").(int64)
    return userID, ok
}
