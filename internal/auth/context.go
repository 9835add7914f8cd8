package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type ctxKey string

const claimsKey ctxKey = "auth_claims"

// localsClaimsKey is the fiber Locals key holding the verified claims.
const localsClaimsKey = "auth_claims"

// WithClaims stores verified token claims in the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts verified token claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// ClaimsFromFiber retrieves the claims attached by Guard.Handle.
func ClaimsFromFiber(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(localsClaimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok && claims != nil
}

// SubjectID returns the caller's user id for an authenticated request.
func SubjectID(c *fiber.Ctx) (int64, bool) {
	claims, ok := ClaimsFromFiber(c)
	if !ok {
		return 0, false
	}
	return claims.SubjectID, true
}
