package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseJWT(t *testing.T) {
	const secret = "test-secret"

	token, err := SignJWT(secret, "5e6f7a8b-0000-0000-0000-000000000001", "freelancer", 60)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "5e6f7a8b-0000-0000-0000-000000000001", claims.UserID)
	assert.Equal(t, "freelancer", claims.Role)
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := SignJWT("secret-a", "uid", "client", 60)
	require.NoError(t, err)

	_, err = ParseJWT("secret-b", token)
	assert.Error(t, err)
}

func TestParseJWTExpired(t *testing.T) {
	token, err := SignJWT("secret", "uid", "client", -1)
	require.NoError(t, err)

	_, err = ParseJWT("secret", token)
	assert.Error(t, err)
}

func TestParseJWTGarbage(t *testing.T) {
	_, err := ParseJWT("secret", "not.a.token")
	assert.Error(t, err)
}
