package auth

import (
	"testing"
	"time"

	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(issuer string) *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "test-secret-key-that-is-long-enough", Issuer: issuer})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestService("drymix")
	orgID, userID := uuid.New(), uuid.New()

	token, err := svc.Issue(orgID, userID, []string{"accountant"}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	got, err := claims.OrganizationID()
	require.NoError(t, err)
	assert.Equal(t, orgID, got)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, []string{"accountant"}, claims.Roles)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestService("drymix")

	expired, err := svc.Issue(uuid.New(), uuid.New(), nil, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Validate(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other, err := newTestService("someone-else").Issue(uuid.New(), uuid.New(), nil, time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongKey, err := NewJWTService(config.JWTConfig{Secret: "another-secret", Issuer: "drymix"}).
		Issue(uuid.New(), uuid.New(), nil, time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeviceKey(t *testing.T) {
	key, err := NewDeviceKey()
	require.NoError(t, err)

	prefix, secret, err := SplitDeviceKey(key.Plain)
	require.NoError(t, err)
	assert.Equal(t, key.Prefix, prefix)
	assert.True(t, VerifyDeviceSecret(key.Hash, secret))
	assert.False(t, VerifyDeviceSecret(key.Hash, secret+"x"))

	for _, bad := range []string{"", "nodot", "dk_abc.", "xx_abc.secret"} {
		_, _, err := SplitDeviceKey(bad)
		assert.ErrorIs(t, err, ErrMalformedDeviceKey, bad)
	}
}
