// Package middleware provides HTTP middleware: authentication, request IDs,
// rate limiting, and request logging.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// WithPrincipal stores the principal name in the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, principalKey{}, name)
}

// PrincipalFromContext extracts the principal name from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

// AuthConfig controls how requests are authenticated.
type AuthConfig struct {
	// JWTSecret is the HS256 shared secret for Bearer tokens.
	JWTSecret string
	// AllowDevHeader accepts a plain X-Principal header instead of a token.
	// Never enable this in production.
	AllowDevHeader bool
}

// Auth returns an HTTP middleware that authenticates every request. It tries
// an HS256 JWT Bearer token first and, when the dev header is allowed, falls
// back to X-Principal. Requests with neither get 401.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && cfg.JWTSecret != "" {
				sub, err := subjectFromToken(strings.TrimPrefix(auth, "Bearer "), cfg.JWTSecret)
				if err == nil && sub != "" {
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), sub)))
					return
				}
			}

			if cfg.AllowDevHeader {
				if principal := r.Header.Get("X-Principal"); principal != "" {
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
					return
				}
			}

			writeUnauthorized(w)
		})
	}
}

// subjectFromToken verifies an HS256 token and returns its sub claim.
func subjectFromToken(tokenString, secret string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token has no sub claim")
	}
	return sub, nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]interface{}{
			{
				"error_kind": "UNAUTHORIZED",
				"message":    "unauthorized: provide a valid Bearer token",
			},
		},
	})
}
