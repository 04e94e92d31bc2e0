// Package jwtx signs and verifies the HS256 token pairs issued on login.
// Tokens are stateless: everything needed to authorize a request is carried in
// the signed claims, there is no server-side revocation list.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminator carried in the "type" claim. Refresh tokens are
// only accepted by the refresh flow, access tokens everywhere else.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Default token TTLs. Access tokens are short-lived; refresh tokens trade a
// longer window for the documented no-revocation risk.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the signed claims embedded in both halves of a token pair.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the stable user identifier; Subject carries the username.
	UserID string `json:"user_id"`

	// Role is the user's role at issuance time ("user", "analyst", "admin").
	Role string `json:"role,omitempty"`

	// TokenType distinguishes access from refresh tokens.
	TokenType string `json:"type"`
}

// NewClaims builds minimally-correct claims for one half of a token pair.
func NewClaims(username, userID, role, tokenType string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
	}
}

// IsAccess reports whether the claims belong to an access token.
func (c *Claims) IsAccess() bool { return c.TokenType == TokenTypeAccess }

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool { return c.TokenType == TokenTypeRefresh }
