package tokens

import (
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpaqueTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := Opaque{}.Generate("u1")
		require.NoError(t, err)
		assert.Len(t, tok, 64)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestSignedTokens(t *testing.T) {
	s := NewSigned("test_secret")

	first, err := s.Generate("user-123")
	require.NoError(t, err)
	second, err := s.Generate("user-123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.NoError(t, s.Check(first))

	claims := &jwt.StandardClaims{}
	_, err = jwt.ParseWithClaims(first, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test_secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.NotEmpty(t, claims.Id)

	assert.ErrorIs(t, NewSigned("other").Check(first), ErrInvalidSignature)
	assert.ErrorIs(t, s.Check("invalid.token.string"), ErrInvalidSignature)

	var _ Checker = s
	var _ Generator = Opaque{}
}
