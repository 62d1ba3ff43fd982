package auth

import (
	"context"
	"testing"
	"time"

	"onboarding-service/internal/common/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	var cfg config.AuthConfig
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "https://auth.factoring.example"
	cfg.JWT.Audience = "onboarding"
	cfg.JWT.EmailClaim = "email"
	return cfg
}

func TestVerifier_RoundTrip(t *testing.T) {
	cfg := testAuthConfig()
	token, err := IssueToken(cfg, "user-1", "Owner@Acme.com", time.Hour)
	require.NoError(t, err)

	id, err := NewVerifier(cfg).VerifyHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.Subject)
	assert.Equal(t, "owner@acme.com", id.UserEmail)
}

func TestVerifier_Rejects(t *testing.T) {
	cfg := testAuthConfig()
	v := NewVerifier(cfg)

	expired, err := IssueToken(cfg, "user-1", "owner@acme.com", -time.Hour)
	require.NoError(t, err)

	other := cfg
	other.JWT.Secret = "another-secret"
	wrongKey, err := IssueToken(other, "user-1", "owner@acme.com", time.Hour)
	require.NoError(t, err)

	otherAud := cfg
	otherAud.JWT.Audience = "billing"
	wrongAud, err := IssueToken(otherAud, "user-1", "owner@acme.com", time.Hour)
	require.NoError(t, err)

	noEmail, err := IssueToken(cfg, "user-1", "", time.Hour)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "owner@acme.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty header", "", ErrMissingToken},
		{"not bearer", "Basic abc", ErrMissingToken},
		{"expired", "Bearer " + expired, ErrInvalidToken},
		{"wrong key", "Bearer " + wrongKey, ErrInvalidToken},
		{"wrong audience", "Bearer " + wrongAud, ErrInvalidToken},
		{"alg none", "Bearer " + noneAlg, ErrInvalidToken},
		{"no email", "Bearer " + noEmail, ErrMissingEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyHeader(tt.header)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithIdentity(context.Background(), Identity{UserEmail: "owner@acme.com"})
	id, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "owner@acme.com", id.UserEmail)
}
