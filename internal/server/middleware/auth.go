// Package middleware provides HTTP middleware for bearer credential handling.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jonathan/policy-generator/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const (
	credentialKey ContextKey = "credential"
	subjectKey    ContextKey = "subject"
)

// Rejection messages written in the JSON error body.
const (
	MsgMissingHeader = "Missing Authorization header"
	MsgInvalidHeader = "Invalid Authorization header"
	MsgInvalidToken  = "Invalid or expired credential"
)

// TokenValidator checks a bearer token and returns the subject it names.
type TokenValidator interface {
	ValidateToken(tokenString string) (subject string, err error)
}

// AuthMiddleware requires an Authorization header on every request. With a
// nil validator any header is accepted, including an empty bearer token, and
// the raw token is forwarded through the context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			values, present := r.Header[http.CanonicalHeaderKey("Authorization")]
			if !present || len(values) == 0 {
				reject(w, MsgMissingHeader)
				return
			}

			token, ok := parseBearer(values[0])
			ctx := context.WithValue(r.Context(), credentialKey, token)

			if validator != nil {
				if !ok || token == "" {
					reject(w, MsgInvalidHeader)
					return
				}
				subject, err := validator.ValidateToken(token)
				if err != nil {
					reject(w, MsgInvalidToken)
					return
				}
				ctx = context.WithValue(ctx, subjectKey, subject)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseBearer extracts the token from "Bearer <token>". The scheme is
// case-insensitive. ok is false when the scheme is not Bearer.
func parseBearer(header string) (token string, ok bool) {
	parts := strings.Fields(header)
	switch {
	case len(parts) == 0:
		return "", true
	case !strings.EqualFold(parts[0], "Bearer"):
		return strings.TrimSpace(header), false
	case len(parts) == 1:
		return "", true
	case len(parts) == 2:
		return parts[1], true
	default:
		return "", false
	}
}

func reject(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: message})
}

// Credential returns the bearer token the caller supplied, possibly empty.
func Credential(ctx context.Context) string {
	token, _ := ctx.Value(credentialKey).(string)
	return token
}

// Subject returns the authenticated subject, or "" when auth is disabled.
func Subject(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}
