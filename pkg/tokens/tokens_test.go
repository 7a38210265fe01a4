package tokens

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondhandhub/marketplace-backend/pkg/config"
)

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "secondhand-hub",
		ExpirationMinutes: 30,
	}
}

func emailTestConfig() config.EmailTokenConfig {
	return config.EmailTokenConfig{
		Secret: "email-secret",
		MaxAge: time.Hour,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := jwtTestConfig()
	userID := uuid.New()

	signed, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		UserID:   userID,
		Username: "testuser",
		JTI:      "jti-1",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "jti-1", claims.ID)
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	signed, err := MintAccessToken(jwtTestConfig(), time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(jwtTestConfig(), signed)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := jwtTestConfig()
	signed, err := MintAccessToken(cfg, time.Now().UTC().Add(-2*time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	signed, err := MintAccessToken(jwtTestConfig(), time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
	})
	require.NoError(t, err)

	bad := jwtTestConfig()
	bad.Secret = "other-secret"
	_, err = ParseAccessToken(bad, signed)
	assert.Error(t, err)
}

func TestEmailTokenRoundTrip(t *testing.T) {
	signed, err := MintEmailToken(emailTestConfig(), time.Now().UTC(), "Test@Example.com", PurposeEmailConfirm)
	require.NoError(t, err)

	email, err := ParseEmailToken(emailTestConfig(), signed, PurposeEmailConfirm)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", email)
}

func TestEmailTokenPurposeIsolation(t *testing.T) {
	confirm, err := MintEmailToken(emailTestConfig(), time.Now().UTC(), "test@example.com", PurposeEmailConfirm)
	require.NoError(t, err)
	reset, err := MintEmailToken(emailTestConfig(), time.Now().UTC(), "test@example.com", PurposePasswordReset)
	require.NoError(t, err)

	_, err = ParseEmailToken(emailTestConfig(), confirm, PurposePasswordReset)
	assert.ErrorIs(t, err, ErrInvalidEmailToken)

	_, err = ParseEmailToken(emailTestConfig(), reset, PurposeEmailConfirm)
	assert.ErrorIs(t, err, ErrInvalidEmailToken)
}

func TestEmailTokenExpiry(t *testing.T) {
	signed, err := MintEmailToken(emailTestConfig(), time.Now().UTC().Add(-2*time.Hour), "test@example.com", PurposeEmailConfirm)
	require.NoError(t, err)

	_, err = ParseEmailToken(emailTestConfig(), signed, PurposeEmailConfirm)
	assert.ErrorIs(t, err, ErrInvalidEmailToken)
}

func TestEmailTokenTamperedSignature(t *testing.T) {
	signed, err := MintEmailToken(emailTestConfig(), time.Now().UTC(), "test@example.com", PurposeEmailConfirm)
	require.NoError(t, err)

	other := emailTestConfig()
	other.Secret = "different-secret"
	_, err = ParseEmailToken(other, signed, PurposeEmailConfirm)
	assert.ErrorIs(t, err, ErrInvalidEmailToken)
}
