package auth

import (
    "errors"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
    t.Helper()
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := token.SignedString([]byte(secret))
    if err != nil {
        t.Fatal(err)
    }
    return signed
}

func TestValidateToken(t *testing.T) {
    t.Run("valid access token", func(t *testing.T) {
        signed := signToken(t, jwt.MapClaims{
            "user_id":  "42",
            "username": "artlover",
            "type":     "access",
            "exp":      time.Now().Add(time.Hour).Unix(),
        }, testSecret)

        claims, err := ValidateToken(signed, testSecret)
        if err != nil {
            t.Fatal(err)
        }
        if claims.UserID != 42 {
            t.Errorf("user id = %d, want 42", claims.UserID)
        }
        if claims.Username != "artlover" {
            t.Errorf("username = %q", claims.Username)
        }
        if claims.Type != "access" {
            t.Errorf("type = %q", claims.Type)
        }
    })

    t.Run("expired token", func(t *testing.T) {
        signed := signToken(t, jwt.MapClaims{
            "user_id": "42",
            "type":    "access",
            "exp":     time.Now().Add(-time.Hour).Unix(),
        }, testSecret)

        if _, err := ValidateToken(signed, testSecret); !errors.Is(err, ErrInvalidToken) {
            t.Errorf("expected ErrInvalidToken, got %v", err)
        }
    })

    t.Run("wrong secret", func(t *testing.T) {
        signed := signToken(t, jwt.MapClaims{
            "user_id": "42",
            "exp":     time.Now().Add(time.Hour).Unix(),
        }, "other-secret")

        if _, err := ValidateToken(signed, testSecret); !errors.Is(err, ErrInvalidToken) {
            t.Errorf("expected ErrInvalidToken, got %v", err)
        }
    })

    t.Run("missing user id", func(t *testing.T) {
        signed := signToken(t, jwt.MapClaims{
            "exp": time.Now().Add(time.Hour).Unix(),
        }, testSecret)

        if _, err := ValidateToken(signed, testSecret); !errors.Is(err, ErrInvalidToken) {
            t.Errorf("expected ErrInvalidToken, got %v", err)
        }
    })

    t.Run("garbage token", func(t *testing.T) {
        if _, err := ValidateToken("not.a.token", testSecret); !errors.Is(err, ErrInvalidToken) {
            t.Errorf("expected ErrInvalidToken, got %v", err)
        }
    })
}
