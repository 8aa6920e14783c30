// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		"test-secret-key-for-jwt-signing-32-chars", // secretKey
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		secretKey   string
		expectError bool
	}{
		{
			name:        "valid symmetric key configuration",
			useRSAKeys:  false,
			secretKey:   "test-secret-key-for-jwt-signing-32-chars",
			expectError: false,
		},
		{
			name:        "missing secret key",
			useRSAKeys:  false,
			secretKey:   "",
			expectError: true,
		},
		{
			name:        "rsa requested without keys",
			useRSAKeys:  true,
			secretKey:   "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(
				15*time.Minute,
				7*24*time.Hour,
				"test-issuer",
				"test-audience",
				tt.useRSAKeys,
				"",
				"",
				tt.secretKey,
			)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	accessClaims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), accessClaims.UserID)
	assert.False(t, accessClaims.Admin)
	assert.Equal(t, "access", accessClaims.TokenType)
	assert.NotEmpty(t, accessClaims.TokenID)

	refreshClaims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, accessClaims.TokenID, refreshClaims.TokenID)
}

func TestGenerateAdminTokens(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateAdminTokens(7)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.True(t, claims.Admin)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"not a jwt", "not-a-token"},
		{"truncated jwt", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJ1c2VyX2lk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	other, err := NewTokenService(
		15*time.Minute, 7*24*time.Hour,
		"test-issuer", "test-audience",
		false, "", "", "a-completely-different-secret-key-here",
	)
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateTokens(1)
	require.NoError(t, err)

	claims, err := other.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := NewTokenService(
		-time.Minute, // already expired
		7*24*time.Hour,
		"test-issuer", "test-audience",
		false, "", "", "test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateTokens(1)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, claims)
}

func TestRefreshToken(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := svc.GenerateTokens(11)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(11), claims.UserID)

	// Access tokens must not be usable for refresh
	_, _, err = svc.RefreshToken(accessToken)
	assert.Error(t, err)
}

func TestRefreshToken_PreservesAdminClaim(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	_, refreshToken, err := svc.GenerateAdminTokens(3)
	require.NoError(t, err)

	newAccess, _, err := svc.RefreshToken(refreshToken)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
}

func TestRevokeToken(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := svc.GenerateTokens(5)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(accessToken))

	claims, err := svc.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Nil(t, claims)
	assert.True(t, svc.IsTokenRevoked(accessToken))

	// Revocation is per token, the paired refresh token still works
	refreshClaims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(5), refreshClaims.UserID)

	// Revoking an already revoked token is a no-op
	assert.NoError(t, svc.RevokeToken(accessToken))
}

func TestAccessTokenTTL(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, svc.AccessTokenTTL())
}

func TestConcurrentTokenGeneration(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	const n = 20
	done := make(chan string, n)
	for i := 0; i < n; i++ {
		go func(id uint) {
			access, _, err := svc.GenerateTokens(id)
			assert.NoError(t, err)
			done <- access
		}(uint(i + 1))
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		tok := <-done
		assert.False(t, seen[tok], "duplicate token generated")
		seen[tok] = true
	}
}
