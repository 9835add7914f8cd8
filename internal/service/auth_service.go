package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// CredentialStore looks up users that may authenticate.
// Missing and inactive users both yield pgx.ErrNoRows.
type CredentialStore interface {
	FindActiveByEmail(ctx context.Context, email string) (*domain.User, error)
	FindActiveByID(ctx context.Context, id int64) (*domain.User, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(subjectID int64, tokenType auth.TokenType) (string, time.Time, error)
	Verify(token string) (*auth.Claims, error)
}

// AuthService coordinates login and token refresh flows.
type AuthService struct {
	users   CredentialStore
	hasher  auth.PasswordHasher
	tokens  TokenIssuer
	ledger  repository.RefreshLedger
	rotate  bool
	events  events.Dispatcher
	metrics *observability.Metrics
	logger  *zap.Logger
}

// AuthDependencies encapsulates collaborators of the auth service.
// Ledger is required only when refresh token rotation is enabled.
type AuthDependencies struct {
	Users   CredentialStore
	Hasher  auth.PasswordHasher
	Tokens  TokenIssuer
	Ledger  repository.RefreshLedger
	Events  events.Dispatcher
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	if deps.Users == nil || deps.Hasher == nil || deps.Tokens == nil {
		return nil, errors.New("auth service requires users, hasher and tokens")
	}
	if cfg.RotateRefreshTokens && deps.Ledger == nil {
		return nil, errors.New("refresh token rotation requires a ledger")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:   deps.Users,
		hasher:  deps.Hasher,
		tokens:  deps.Tokens,
		ledger:  deps.Ledger,
		rotate:  cfg.RotateRefreshTokens,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  logger.Named("auth"),
	}, nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.loginFailed(ctx, nil, apperrors.NewUnauthorized("not an authorized user"))
		}
		return nil, apperrors.NewInternalError(err)
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, &user.ID, apperrors.NewUnauthorized("invalid user or password"))
	}

	pair, err := s.CreateTokens(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAuth("login", "succeeded")
	s.publish(ctx, events.New(events.EventLoginSucceeded, &user.ID, nil))
	return pair, nil
}

// CreateTokens mints an access and a refresh token for user.
func (s *AuthService) CreateTokens(user *domain.User) (*domain.TokenPair, error) {
	access, _, err := s.tokens.Issue(user.ID, auth.TokenTypeAccess)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("sign access token: %w", err))
	}
	refresh, _, err := s.tokens.Issue(user.ID, auth.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("sign refresh token: %w", err))
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshTokens re-issues a token pair from a valid refresh token.
// Unless rotation is enabled the presented token stays usable until it expires.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidToken) {
			err = apperrors.NewInvalidToken(err)
		}
		return nil, s.refreshRejected(ctx, nil, err)
	}
	subjectID := claims.SubjectID

	if claims.TokenType != auth.TokenTypeRefresh {
		return nil, s.refreshRejected(ctx, &subjectID,
			apperrors.NewInvalidToken(fmt.Errorf("unexpected token type %q", claims.TokenType)))
	}

	if s.rotate {
		first, err := s.ledger.MarkUsed(ctx, claims.ID, claims.ExpiresAt)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("mark refresh token used: %w", err))
		}
		if !first {
			return nil, s.refreshRejected(ctx, &subjectID,
				apperrors.NewInvalidToken(errors.New("refresh token already used")))
		}
	}

	user, err := s.users.FindActiveByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.refreshRejected(ctx, &subjectID, apperrors.NewUnauthorized("not an authorized person"))
		}
		return nil, apperrors.NewInternalError(err)
	}

	pair, err := s.CreateTokens(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAuth("refresh", "succeeded")
	s.publish(ctx, events.New(events.EventTokensRefreshed, &user.ID, nil))
	return pair, nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID *int64, err error) error {
	s.logger.Info("login denied", userField(userID), zap.Error(err))
	s.metrics.RecordAuth("login", "failed")
	s.publish(ctx, events.New(events.EventLoginFailed, userID, failurePayload(err)))
	return err
}

func (s *AuthService) refreshRejected(ctx context.Context, userID *int64, err error) error {
	s.logger.Info("refresh denied", userField(userID), zap.Error(err))
	s.metrics.RecordAuth("refresh", "failed")
	s.publish(ctx, events.New(events.EventRefreshRejected, userID, failurePayload(err)))
	return err
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func failurePayload(err error) events.AuthFailurePayload {
	return events.AuthFailurePayload{Code: apperrors.ToDomainError(err).Code, Reason: err.Error()}
}

func userField(userID *int64) zap.Field {
	if userID == nil {
		return zap.Skip()
	}
	return zap.Int64("user_id", *userID)
}
