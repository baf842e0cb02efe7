package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("user1", "secret", 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserId)
}

func TestParseWrongSecret(t *testing.T) {
	token, err := GenerateToken("user1", "secret", 1)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	claims := &Claims{
		UserId: "user1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}

func TestParseEmptyUserId(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", "secret")
	assert.Error(t, err)
}
