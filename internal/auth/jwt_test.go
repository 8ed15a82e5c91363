package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	secret, err := GenerateSecureSecret()
	require.NoError(t, err)
	ti, err := NewTokenIssuer(secret)
	require.NoError(t, err)
	return ti
}

// TestTokenLifecycle тестирует выпуск и проверку токена
func TestTokenLifecycle(t *testing.T) {
	ti := newIssuer(t)

	token, err := ti.Issue("operator", true, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "неверный формат JWT")

	claims, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
	assert.True(t, claims.IsAdmin)
}

// TestValidateInvalidToken тестирует отказ для недействительных токенов
func TestValidateInvalidToken(t *testing.T) {
	ti := newIssuer(t)
	other := newIssuer(t)

	foreign, err := other.Issue("operator", true, time.Hour)
	require.NoError(t, err)
	expired, err := ti.Issue("operator", true, -time.Minute)
	require.NoError(t, err)

	for _, token := range []string{
		"",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
		foreign,
		expired,
	} {
		_, err := ti.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "токен %q прошёл проверку", token)
	}
}

// TestNewTokenIssuer_Secret тестирует проверку секрета
func TestNewTokenIssuer_Secret(t *testing.T) {
	s1, err := GenerateSecureSecret()
	require.NoError(t, err)
	s2, err := GenerateSecureSecret()
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
	assert.GreaterOrEqual(t, len(s1), 40)

	for _, bad := range []string{"", "too-short", "invalid-base64-@#$%", "c2hvcnQ="} {
		_, err := NewTokenIssuer(bad)
		assert.Error(t, err, "секрет %q был принят", bad)
	}
}
