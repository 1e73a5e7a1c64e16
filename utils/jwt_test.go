package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("s3cret", Claims{UserID: 12, Email: "a@b.dz", Role: RoleProducer, ProducerID: 4}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, int64(12), claims.UserID)
	assert.Equal(t, int64(4), claims.ProducerID)
	assert.Equal(t, RoleProducer, claims.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	expired, err := GenerateToken("s3cret", Claims{UserID: 1, Role: RoleCustomer}, -time.Minute)
	require.NoError(t, err)
	noProducer, err := GenerateToken("s3cret", Claims{UserID: 1, Role: RoleProducer}, time.Hour)
	require.NoError(t, err)
	noUser, err := GenerateToken("s3cret", Claims{Role: RoleCustomer}, time.Hour)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, Role: RoleCustomer}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	wrongKey, err := GenerateToken("other", Claims{UserID: 1, Role: RoleCustomer}, time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":     expired,
		"no producer": noProducer,
		"no user":     noUser,
		"no expiry":   noExpiry,
		"wrong key":   wrongKey,
		"garbage":     "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken("s3cret", tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("cron")
	require.NoError(t, err)
	assert.NotContains(t, hash, "cron")

	ok, err := VerifySecret(hash, "cron")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySecret(hash, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifySecret("not-a-hash", "cron")
	assert.Error(t, err)
}
