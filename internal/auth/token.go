package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	claimSubject   = "sub"
	claimAudience  = "aud"
	claimIssuer    = "iss"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimID        = "jti"
	claimTokenType = "token_type"
)

var registeredClaims = map[string]struct{}{
	claimSubject:   {},
	claimAudience:  {},
	claimIssuer:    {},
	claimIssuedAt:  {},
	claimExpiresAt: {},
	claimID:        {},
	claimTokenType: {},
	"nbf":          {},
}

// TokenConfig holds the signing parameters of a TokenManager.
type TokenConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the verified content of a token.
type Claims struct {
	SubjectID int64
	TokenType TokenType
	ID        string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customizes a TokenManager.
type Option func(*TokenManager)

// WithClock replaces the wall clock used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(cfg TokenConfig, opts ...Option) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	tm := &TokenManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Issue signs a token of the given type with its configured lifetime and no extra claims.
func (tm *TokenManager) Issue(subjectID int64, tokenType TokenType) (string, time.Time, error) {
	ttl := tm.accessTTL
	if tokenType == TokenTypeRefresh {
		ttl = tm.refreshTTL
	}
	return tm.Sign(subjectID, ttl, tokenType, nil)
}

// Sign builds and signs a JWT for the subject. Extra claims never override registered ones.
func (tm *TokenManager) Sign(subjectID int64, ttl time.Duration, tokenType TokenType, extra map[string]any) (string, time.Time, error) {
	now := tm.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	claims := make(jwt.MapClaims, len(extra)+len(registeredClaims))
	for k, v := range extra {
		claims[k] = v
	}
	claims[claimSubject] = subjectID
	claims[claimAudience] = tm.audience
	claims[claimIssuer] = tm.issuer
	claims[claimIssuedAt] = issuedAt
	claims[claimExpiresAt] = expiresAt
	claims[claimID] = uuid.NewString()
	claims[claimTokenType] = string(tokenType)
	// validity is governed by iat/exp only
	delete(claims, "nbf")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt.Time, nil
}

// Verify validates signature, expiry, audience and issuer and returns the claims.
// Every failure is an INVALID_TOKEN domain error; the wrapped cause says why.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(tm.audience),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
		jwt.WithJSONNumber(),
	)

	mapClaims := jwt.MapClaims{}
	parsed, err := parser.ParseWithClaims(tokenStr, mapClaims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, apperrors.NewInvalidToken(err)
	}
	if !parsed.Valid {
		return nil, apperrors.NewInvalidToken(errors.New("token not valid"))
	}

	claims, err := claimsFromMap(mapClaims)
	if err != nil {
		return nil, apperrors.NewInvalidToken(err)
	}
	return claims, nil
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	var subjectID int64
	switch sub := m[claimSubject].(type) {
	case json.Number:
		id, err := sub.Int64()
		if err != nil {
			return nil, fmt.Errorf("subject is not an integer: %w", err)
		}
		subjectID = id
	default:
		return nil, errors.New("subject claim missing or not numeric")
	}

	tokenType, _ := m[claimTokenType].(string)
	id, _ := m[claimID].(string)

	issuer, err := m.GetIssuer()
	if err != nil {
		return nil, err
	}
	audience, err := m.GetAudience()
	if err != nil {
		return nil, err
	}
	exp, err := m.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("expiry claim missing")
	}

	claims := &Claims{
		SubjectID: subjectID,
		TokenType: TokenType(tokenType),
		ID:        id,
		Issuer:    issuer,
		Audience:  audience,
		ExpiresAt: exp.Time,
	}
	if iat, err := m.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	for k, v := range m {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		if claims.Extra == nil {
			claims.Extra = make(map[string]any)
		}
		claims.Extra[k] = v
	}
	return claims, nil
}
