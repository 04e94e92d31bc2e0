package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	// Minimum cost keeps the test fast; production uses DefaultCost.
	hash, err := HashPassword("correct horse battery staple", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong password", hash), ErrMismatch)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("same password", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("same password", bcrypt.MinCost)
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}

func TestHashPasswordInvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("pw", -1)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, DefaultCost, cost)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	err := VerifyPassword("pw", "not-a-bcrypt-hash")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMismatch)
}
