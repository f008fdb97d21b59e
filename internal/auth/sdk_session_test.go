// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenoteai/codenote/internal/platform/sec"
	"github.com/codenoteai/codenote/pkg/codenote"
)

// These scenarios run the client SDK against the real auth handlers, so the
// two halves of the wire contract are exercised together instead of each
// against its own fixture.

func TestClientSDK_LoginByEmailOrUsername(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	client, err := codenote.New(harness.server.URL)
	require.NoError(t, err)

	user, err := client.Session().Login(context.Background(), codenote.LoginInput{
		Email:    "octo@codenote.ai",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, "octocat", user.Username)
	assert.True(t, client.Session().Authenticated())

	require.NoError(t, client.Session().Logout(context.Background()))

	user, err = client.Session().Login(context.Background(), codenote.LoginInput{
		Username: "octocat",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "octo@codenote.ai", user.Email)
}

func TestClientSDK_RegisterThenBootstrapFromCookies(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)

	client, err := codenote.New(harness.server.URL)
	require.NoError(t, err)

	user, err := client.Session().Register(context.Background(), "octocat", "octo@codenote.ai", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, "octocat", user.Username)

	// A second client seeded with the first one's cookies stands in for a
	// process restart with a persisted session file.
	restarted, err := codenote.New(harness.server.URL)
	require.NoError(t, err)
	restarted.SetCookies(client.Cookies())

	require.NoError(t, restarted.Session().Init(context.Background()))
	assert.True(t, restarted.Session().Authenticated())
	require.NotNil(t, restarted.Session().CurrentUser())
	assert.Equal(t, "octocat", restarted.Session().CurrentUser().Username)
}

func TestClientSDK_ExpiredAccessTokenRecoversViaRefresh(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	user, err := harness.repository.FindByUsername(context.Background(), "octocat")
	require.NoError(t, err)

	// Sign an already-expired access token alongside a live refresh token,
	// both with the harness secrets, and seed them into a fresh client.
	expiredService, err := sec.NewTokenService(
		"access-secret-for-tests",
		"refresh-secret-for-tests",
		-time.Minute,
		7*24*time.Hour,
		"codenote.test",
	)
	require.NoError(t, err)
	pair, err := expiredService.IssueSessionTokens(user.ID)
	require.NoError(t, err)

	client, err := codenote.New(harness.server.URL)
	require.NoError(t, err)
	client.SetCookies([]*http.Cookie{
		{Name: "accessToken", Value: pair.AccessToken},
		{Name: "refreshToken", Value: pair.RefreshToken},
	})

	// Bootstrap sees the 401 from the stale access token and recovers by
	// rotating the pair, without surfacing an error to the caller.
	require.NoError(t, client.Session().Init(context.Background()))
	assert.True(t, client.Session().Authenticated())
	require.NotNil(t, client.Session().CurrentUser())
	assert.Equal(t, "octocat", client.Session().CurrentUser().Username)
}
