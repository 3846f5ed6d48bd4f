package auth

import (
	"testing"

	"SessionScope/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, lifetime string) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(config.AuthConfig{
		Secret:        "unit-test-secret-key",
		TokenLifetime: lifetime,
	})
	require.NoError(t, err)
	return m
}

func TestJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(config.AuthConfig{})
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(t, "5m")

	token, err := m.GenerateToken("analyst", "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "analyst", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "analyst", claims.Subject)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := newTestManager(t, "5m")
	m.lifetime = -1 // already expired at issue time

	token, err := m.GenerateToken("admin", "admin")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	m := newTestManager(t, "5m")
	token, err := m.GenerateToken("admin", "admin")
	require.NoError(t, err)

	other, err := NewJWTManager(config.AuthConfig{Secret: "a-different-secret", TokenLifetime: "5m"})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	m := newTestManager(t, "5m")

	for _, tok := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		_, err := m.ValidateToken(tok)
		assert.Error(t, err)
	}
}
