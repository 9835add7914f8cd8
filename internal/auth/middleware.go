package auth

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// TokenVerifier checks a compact token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Guard validates bearer access tokens before protected handlers run.
type Guard struct {
	tokens TokenVerifier
	logger *zap.Logger
}

// NewGuard constructs the access guard.
func NewGuard(tokens TokenVerifier, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{tokens: tokens, logger: logger}
}

// Authenticate resolves an Authorization header value into verified access claims.
// All failures are UNAUTHORIZED.
func (g *Guard) Authenticate(authHeader string) (*Claims, error) {
	if authHeader == "" {
		return nil, apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperrors.NewUnauthorized("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return nil, apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		g.logger.Info("access token rejected", zap.Error(err))
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	if claims.TokenType != TokenTypeAccess {
		g.logger.Info("access token rejected",
			zap.Int64("subject_id", claims.SubjectID),
			zap.String("token_type", string(claims.TokenType)))
		return nil, apperrors.NewUnauthorized(fmt.Sprintf("unexpected token type %q", claims.TokenType))
	}
	return claims, nil
}

// Handle enforces authentication for protected routes.
func (g *Guard) Handle(c *fiber.Ctx) error {
	claims, err := g.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	c.Locals(localsClaimsKey, claims)
	c.SetUserContext(WithClaims(c.UserContext(), claims))
	return c.Next()
}
