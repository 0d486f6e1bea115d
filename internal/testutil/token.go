package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken signs an HS256 bearer token for actorID the way the identity
// provider does. A negative ttl yields an already expired token.
func AccessToken(t *testing.T, secret, issuer, actorID string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   actorID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}
