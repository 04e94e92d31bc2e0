package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid covers malformed structure, bad signature, and expiry. The
	// caller must not be able to distinguish these cases from the error alone.
	ErrInvalid = errors.New("jwtx: invalid token")
)

// Codec signs and verifies tokens with a shared HMAC-SHA256 secret.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec returns a Codec for the given shared secret and issuer claim.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: signing secret must not be empty")
	}
	return &Codec{secret: secret, issuer: issuer}, nil
}

// Issuer returns the issuer claim this codec signs and requires.
func (c *Codec) Issuer() string { return c.issuer }

// Sign produces a compact serialized HS256 token for the claims.
func (c *Codec) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a compact token. It returns ErrInvalid when the
// signature is wrong, the structure is malformed, the issuer does not match,
// or the token is outside its validity window.
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
