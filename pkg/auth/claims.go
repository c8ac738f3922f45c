package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify a staff member. The subject is the actor's email; Role is
// informational, the actor directory stays the authority on permissions.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// ActorEmail returns the email claim, falling back to the subject.
func (c Claims) ActorEmail() string {
	email := c.Email
	if email == "" {
		email = c.Subject
	}
	return strings.ToLower(strings.TrimSpace(email))
}

type contextKey string

const claimsContextKey contextKey = "claims"

// ContextWithClaims returns a new context with the given Claims attached.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts Claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
