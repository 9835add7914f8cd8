package dto

import "github.com/spec-kit/account-service/internal/domain"

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest payload for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPairResponse is returned by login and refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewTokenPairResponse maps a domain token pair.
func NewTokenPairResponse(pair *domain.TokenPair) TokenPairResponse {
	return TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
}
