// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package sec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	service, err := NewTokenService(
		"access-secret-for-tests",
		"refresh-secret-for-tests",
		15*time.Minute,
		7*24*time.Hour,
		"codenote.test",
	)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_Construction verifies the secret preconditions.
*/
func TestTokenService_Construction(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
		wantErr       bool
	}{
		{"distinct_secrets", "a-secret", "r-secret", false},
		{"equal_secrets", "same", "same", true},
		{"empty_access", "", "r-secret", true},
		{"empty_refresh", "a-secret", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.accessSecret, tt.refreshSecret, time.Minute, time.Hour, "iss")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestTokenService_RoundTrip verifies that issued tokens resolve back to the
same subject through the matching verifier.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService(t)

	pair, err := service.IssueSessionTokens("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	subject, err := service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)

	subject, err = service.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

/*
TestTokenService_CrossSecretRejection verifies that a refresh token is never
accepted by the access verifier and vice versa.
*/
func TestTokenService_CrossSecretRejection(t *testing.T) {
	service := newTestTokenService(t)

	pair, err := service.IssueSessionTokens("user-123")
	require.NoError(t, err)

	_, err = service.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = service.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

/*
TestTokenService_UseClaimRejection verifies the 'use' claim backstop: even if
both verifiers shared a secret, a token minted for one class must not verify
as the other.
*/
func TestTokenService_UseClaimRejection(t *testing.T) {
	service := newTestTokenService(t)

	// Sign an access-class token with the REFRESH secret to simulate a
	// same-secret misconfiguration.
	forged, err := service.sign("user-123", tokenUseAccess, service.refreshSecret, time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyRefresh(forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

/*
TestTokenService_Expiry verifies that an expired token fails with the
dedicated expiry error, distinct from the invalid error.
*/
func TestTokenService_Expiry(t *testing.T) {
	service := newTestTokenService(t)

	pair, err := service.IssueSessionTokens("user-123")
	require.NoError(t, err)

	// Skip the clock past the access TTL but before the refresh TTL.
	service.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	_, err = service.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = service.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

/*
TestTokenService_RotationInequality verifies back-to-back issuance never
repeats a token, even within the same clock second.
*/
func TestTokenService_RotationInequality(t *testing.T) {
	service := newTestTokenService(t)

	first, err := service.IssueSessionTokens("user-123")
	require.NoError(t, err)

	second, err := service.IssueSessionTokens("user-123")
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

/*
TestTokenService_Garbage verifies handling of malformed token strings.
*/
func TestTokenService_Garbage(t *testing.T) {
	service := newTestTokenService(t)

	for _, bad := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := service.VerifyAccess(bad)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

/*
TestSignPayload verifies the webhook HMAC helpers agree with each other.
*/
func TestSignPayload(t *testing.T) {
	payload := []byte(`{"event":"analysis.completed"}`)

	signature := SignPayload(payload, "hook-secret")
	assert.True(t, VerifyPayloadSignature(payload, "hook-secret", signature))
	assert.False(t, VerifyPayloadSignature(payload, "other-secret", signature))
	assert.False(t, VerifyPayloadSignature([]byte("tampered"), "hook-secret", signature))
}
