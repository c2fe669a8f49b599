package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTSecret is the signing secret used by test apps
const TestJWTSecret = "test-secret"

// SignToken issues an HS256 session token for username, valid for an hour
// from now. Use SignTokenAt to control the expiry.
func SignToken(t testing.TB, secret, username string) string {
	t.Helper()
	return SignTokenAt(t, secret, username, time.Now().Add(time.Hour))
}

// SignTokenAt issues an HS256 session token expiring at exp
func SignTokenAt(t testing.TB, secret, username string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"exp":      exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
