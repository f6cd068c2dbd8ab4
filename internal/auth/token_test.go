// internal/auth/token_test.go
package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID := uuid.New()

	signed, err := issuer.Issue(userID, "staff")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := issuer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	signed, err := issuer.Issue(uuid.New(), "student")
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signed, err := NewTokenIssuer("secret-a", time.Hour).Issue(uuid.New(), "student")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(signed)
	assert.Error(t, err)
}
