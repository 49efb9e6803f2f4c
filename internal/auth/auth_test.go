package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

func TestTokenRoundTrip(t *testing.T) {
	id := session.Identity{UserID: 42, Username: "alice", Role: models.RoleHomeowner}

	token, err := GenerateToken(id, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.Equal(t, "42", claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	id := session.Identity{UserID: 1, Username: "bob", Role: models.RoleStudent}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(id, "secret", time.Hour)
		require.NoError(t, err)
		_, err = ParseToken(token, "other")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(id, "secret", -time.Minute)
		require.NoError(t, err)
		_, err = ParseToken(token, "secret")
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ParseToken(signed, "secret")
		assert.Error(t, err)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("longenough1")
	require.NoError(t, err)
	assert.NotEqual(t, "longenough1", hash)

	ok, err := CheckPassword(hash, "longenough1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "whatever")
	assert.Error(t, err)
}
