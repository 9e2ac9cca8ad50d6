// internal/auth/jwt.go
// Access token validation. Tokens are issued by the identity service; this
// API only verifies them.

package auth

import (
    "errors"
    "fmt"
    "strconv"

    "github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
    UserID   int64  `json:"user_id"`
    Username string `json:"username"`
    Type     string `json:"type"` // "access" or "refresh"
}

// ValidateToken parses and verifies an HS256 token and extracts the claims
// the API cares about.
func ValidateToken(tokenString, secret string) (*Claims, error) {
    token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
        if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
        }
        return []byte(secret), nil
    })
    if err != nil || !token.Valid {
        return nil, ErrInvalidToken
    }

    claims, ok := token.Claims.(jwt.MapClaims)
    if !ok {
        return nil, ErrInvalidToken
    }

    userIDStr, ok := claims["user_id"].(string)
    if !ok {
        return nil, ErrInvalidToken
    }
    userID, err := strconv.ParseInt(userIDStr, 10, 64)
    if err != nil {
        return nil, ErrInvalidToken
    }

    return &Claims{
        UserID:   userID,
        Username: getStringClaim(claims, "username"),
        Type:     getStringClaim(claims, "type"),
    }, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
    if val, ok := claims[key].(string); ok {
        return val
    }
    return ""
}
