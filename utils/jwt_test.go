package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "mina", "customer", TokenAccess, time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken(token, TokenAccess)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "mina", claims.Nickname)
	assert.Equal(t, "customer", claims.Role)
}

func TestTokenTypeMismatch(t *testing.T) {
	token, err := GenerateToken(7, "mina", "customer", TokenRefresh, time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, TokenAccess)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken(7, "mina", "customer", TokenAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, TokenAccess)
	assert.Error(t, err)
}

func TestGarbageToken(t *testing.T) {
	_, err := ParseToken("not.a.token", TokenAccess)
	assert.Error(t, err)
}
