// Package service holds the business logic of the engine. Services are plain
// structs wired together in app; they speak store interfaces and domain types
// and never touch HTTP.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
	"github.com/sentinelsec/sentinel/internal/sentinel/store"
	"github.com/sentinelsec/sentinel/pkg/jwtx"
)

var (
	// ErrInvalidToken covers malformed, tampered, and expired tokens alike.
	ErrInvalidToken = errors.New("invalid_token")

	// ErrWrongTokenType is returned when an access token is presented to the
	// refresh flow or vice versa.
	ErrWrongTokenType = errors.New("wrong_token_type")

	// ErrStaleSubject means the token verified but its subject no longer
	// resolves to an active account.
	ErrStaleSubject = errors.New("stale_subject")
)

// TokenService issues and rotates HS256 token pairs.
type TokenService struct {
	Store      store.Store
	Codec      *jwtx.Codec
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuePair signs a fresh access/refresh pair for the user.
func (s *TokenService) IssuePair(u domain.User, now time.Time) (domain.TokenPair, error) {
	accessTTL := s.AccessTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	refreshTTL := s.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	access, err := s.Codec.Sign(jwtx.NewClaims(
		u.Username, u.ID, u.Role, jwtx.TokenTypeAccess, accessTTL, s.Codec.Issuer(), now,
	))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.Codec.Sign(jwtx.NewClaims(
		u.Username, u.ID, u.Role, jwtx.TokenTypeRefresh, refreshTTL, s.Codec.Issuer(), now,
	))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(accessTTL.Seconds()),
	}, nil
}

// Decode verifies a compact token and returns its claims. All verification
// failures collapse into ErrInvalidToken.
func (s *TokenService) Decode(raw string) (jwtx.Claims, error) {
	claims, err := s.Codec.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// Refresh rotates a token pair. The presented token must be a valid refresh
// token, and its subject must still resolve to an active account; roles are
// re-read from the store so a promotion or demotion takes effect on rotation.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.Decode(refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !claims.IsRefresh() {
		return domain.TokenPair{}, ErrWrongTokenType
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrStaleSubject
		}
		return domain.TokenPair{}, err
	}
	if !user.IsActive {
		return domain.TokenPair{}, ErrStaleSubject
	}

	return s.IssuePair(user, time.Now().UTC())
}
