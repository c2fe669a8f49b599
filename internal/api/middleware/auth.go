package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/worduel/internal/api/apierr"
)

type contextKey string

const (
	usernameContextKey contextKey = "username"
	tokenContextKey    contextKey = "token"
)

// TokenCookie is the cookie a browser client may carry its token in
const TokenCookie = "worduel_token"

// TokenVerifier resolves a bearer token to a username
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Auth creates authentication middleware
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			username, err := verifier.VerifyToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, usernameContextKey, username)
			ctx = context.WithValue(ctx, tokenContextKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken extracts the player token from the request.
// EventSource cannot set headers, so the query string is accepted too.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}

// GetUsername returns the authenticated username from the request context
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(usernameContextKey).(string)
	return username
}

// GetToken returns the raw token the request authenticated with
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetUsername returns the authenticated username or panics
func MustGetUsername(ctx context.Context) string {
	username := GetUsername(ctx)
	if username == "" {
		panic("no username in context - auth middleware not applied?")
	}
	return username
}
