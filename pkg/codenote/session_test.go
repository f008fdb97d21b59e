// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package codenote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// # Fake API

// fakeAPI is a scriptable stand-in for the server's auth surface.
//
// Cookie contents are irrelevant to these tests: the session state the
// client observes is driven entirely by the scripted handlers.
type fakeAPI struct {
	mutex        sync.Mutex
	sessionCalls int32
	refreshCalls int32
	logoutCalls  int32

	// sessionOK controls whether introspection sees a live session.
	sessionOK bool

	// refreshOutcome is the error code a refresh fails with; empty means
	// refresh succeeds and flips sessionOK to true.
	refreshOutcome string

	// refreshGate, when set, blocks the refresh handler until closed.
	refreshGate chan struct{}

	// refreshDelay slows the refresh handler down to widen race windows.
	refreshDelay time.Duration

	server *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/session", requireMethod(http.MethodGet, api.handleSession))
	mux.HandleFunc("/api/v1/auth/refresh", requireMethod(http.MethodPost, api.handleRefresh))
	mux.HandleFunc("/api/v1/auth/logout", requireMethod(http.MethodPost, api.handleLogout))
	mux.HandleFunc("/api/v1/auth/login", requireMethod(http.MethodPost, api.handleLogin))
	mux.HandleFunc("/api/v1/repositories", requireMethod(http.MethodGet, api.handleRepositories))

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (api *fakeAPI) client(t *testing.T) *Client {
	t.Helper()
	client, err := New(api.server.URL)
	require.NoError(t, err)
	return client
}

func (api *fakeAPI) handleSession(writer http.ResponseWriter, _ *http.Request) {
	atomic.AddInt32(&api.sessionCalls, 1)
	api.mutex.Lock()
	ok := api.sessionOK
	api.mutex.Unlock()

	if !ok {
		writeFakeError(writer, http.StatusUnauthorized, CodeExpiredToken, "Token has expired")
		return
	}
	writeFakeData(writer, http.StatusOK, map[string]any{
		"user": map[string]string{"id": "user-1", "username": "octocat"},
	})
}

func (api *fakeAPI) handleRefresh(writer http.ResponseWriter, _ *http.Request) {
	atomic.AddInt32(&api.refreshCalls, 1)

	api.mutex.Lock()
	gate := api.refreshGate
	outcome := api.refreshOutcome
	delay := api.refreshDelay
	api.mutex.Unlock()

	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	if outcome != "" {
		writeFakeError(writer, http.StatusUnauthorized, outcome, "Refresh rejected")
		return
	}

	api.mutex.Lock()
	api.sessionOK = true
	api.mutex.Unlock()
	writeFakeData(writer, http.StatusOK, map[string]any{
		"user": map[string]string{"id": "user-1", "username": "octocat"},
	})
}

func (api *fakeAPI) handleLogout(writer http.ResponseWriter, _ *http.Request) {
	atomic.AddInt32(&api.logoutCalls, 1)
	api.mutex.Lock()
	api.sessionOK = false
	api.mutex.Unlock()
	writeFakeData(writer, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (api *fakeAPI) handleLogin(writer http.ResponseWriter, _ *http.Request) {
	api.mutex.Lock()
	api.sessionOK = true
	api.mutex.Unlock()
	writeFakeData(writer, http.StatusOK, map[string]any{
		"user": map[string]string{"id": "user-1", "username": "octocat"},
	})
}

func (api *fakeAPI) handleRepositories(writer http.ResponseWriter, _ *http.Request) {
	api.mutex.Lock()
	ok := api.sessionOK
	api.mutex.Unlock()

	if !ok {
		writeFakeError(writer, http.StatusUnauthorized, CodeExpiredToken, "Token has expired")
		return
	}
	writeFakeData(writer, http.StatusOK, []map[string]string{{"id": "repo-1", "name": "hello-world"}})
}

// requireMethod mirrors the method restriction of Go 1.22+ ServeMux patterns
// on toolchains whose ServeMux predates them.
func requireMethod(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != method {
			http.Error(writer, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(writer, request)
	}
}

func writeFakeData(writer http.ResponseWriter, status int, data any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(map[string]any{"data": data})
}

func writeFakeError(writer http.ResponseWriter, status int, code, message string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(map[string]string{"error": message, "code": code})
}

// # Refresh Coalescing

func TestRefresh_ConcurrentCallersCoalesce(t *testing.T) {
	api := newFakeAPI(t)
	api.refreshDelay = 50 * time.Millisecond
	client := api.client(t)

	var wg sync.WaitGroup
	for worker := 0; worker < 10; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Session().Refresh(context.Background()))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
	assert.True(t, client.Session().Authenticated())
}

// # Bootstrap

func TestInit_Idempotent(t *testing.T) {
	api := newFakeAPI(t)
	api.sessionOK = true
	client := api.client(t)

	require.NoError(t, client.Session().Init(context.Background()))
	require.NoError(t, client.Session().Init(context.Background()))

	assert.EqualValues(t, 1, atomic.LoadInt32(&api.sessionCalls))
	assert.True(t, client.Session().Initialized())

	user := client.Session().CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "octocat", user.Username)
}

func TestInit_RecoversViaRefresh(t *testing.T) {
	api := newFakeAPI(t)
	client := api.client(t)

	// Introspection fails with an expired token until a refresh lands.
	require.NoError(t, client.Session().Init(context.Background()))

	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
	assert.True(t, client.Session().Authenticated())
	assert.True(t, client.Session().Initialized())
}

func TestInit_NoSessionFinalizesUnauthenticated(t *testing.T) {
	api := newFakeAPI(t)
	api.refreshOutcome = CodeMissingToken
	client := api.client(t)

	err := client.Session().Init(context.Background())
	require.Error(t, err)

	assert.True(t, client.Session().Initialized())
	assert.False(t, client.Session().Authenticated())
	assert.Equal(t, "Please login", client.Session().LastError())
}

// # Refresh Failure Handling

func TestRefresh_MissingTokenIsSilent(t *testing.T) {
	api := newFakeAPI(t)
	api.refreshOutcome = CodeMissingToken
	client := api.client(t)

	err := client.Session().Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	// No session means nothing to tear down.
	assert.Zero(t, atomic.LoadInt32(&api.logoutCalls))
	assert.True(t, client.Session().Initialized())
	assert.False(t, client.Session().Authenticated())
}

func TestRefresh_DeadTokenForcesLogout(t *testing.T) {
	api := newFakeAPI(t)
	client := api.client(t)

	_, err := client.Session().Login(context.Background(), LoginInput{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	require.True(t, client.Session().Authenticated())

	api.mutex.Lock()
	api.refreshOutcome = CodeInvalidToken
	api.mutex.Unlock()

	err = client.Session().Refresh(context.Background())
	assert.True(t, HasCode(err, CodeInvalidToken))

	assert.EqualValues(t, 1, atomic.LoadInt32(&api.logoutCalls))
	assert.False(t, client.Session().Authenticated())
	assert.False(t, client.Session().Initialized())
}

func TestRefresh_NetworkErrorChangesNothing(t *testing.T) {
	api := newFakeAPI(t)
	client := api.client(t)

	_, err := client.Session().Login(context.Background(), LoginInput{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)

	// Point subsequent calls at a dead server.
	api.server.Close()

	err = client.Session().Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, isAuthFailure(err))

	// A flaky connection must not log the user out.
	assert.True(t, client.Session().Authenticated())
}

// # Logout vs. In-Flight Refresh

func TestLogout_WinsOverSlowRefresh(t *testing.T) {
	api := newFakeAPI(t)
	gate := make(chan struct{})
	api.refreshGate = gate
	client := api.client(t)

	refreshDone := make(chan error, 1)
	go func() {
		refreshDone <- client.Session().Refresh(context.Background())
	}()

	// Wait for the refresh to reach the server, then log out underneath it.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.refreshCalls) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Session().Logout(context.Background()))

	close(gate)
	require.NoError(t, <-refreshDone)

	// The refresh completed against a dead epoch; its result is discarded.
	assert.False(t, client.Session().Authenticated())
	assert.Nil(t, client.Session().CurrentUser())
}

func TestLogout_WinsOverSlowRefreshWithoutToken(t *testing.T) {
	api := newFakeAPI(t)
	gate := make(chan struct{})
	api.refreshGate = gate
	api.refreshOutcome = CodeMissingToken
	client := api.client(t)

	refreshDone := make(chan error, 1)
	go func() {
		refreshDone <- client.Session().Refresh(context.Background())
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.refreshCalls) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Session().Logout(context.Background()))

	close(gate)
	require.ErrorIs(t, <-refreshDone, ErrNoSession)

	// The no-session verdict belongs to the old epoch; the fresh epoch must
	// still look un-bootstrapped so the next Init runs for real.
	assert.False(t, client.Session().Initialized())
	assert.False(t, client.Session().Authenticated())
}

// # Retry Interceptor

func TestDo_RetriesOnceAfterRefresh(t *testing.T) {
	api := newFakeAPI(t)
	client := api.client(t)

	// First /repositories call 401s, triggering refresh plus one replay.
	repositories, err := client.Repositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repositories, 1)
	assert.Equal(t, "hello-world", repositories[0].Name)

	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
}

func TestDo_AuthEndpointsAreNotRetried(t *testing.T) {
	api := newFakeAPI(t)
	api.refreshOutcome = CodeInvalidToken
	client := api.client(t)

	// A failing refresh must not recurse into itself through the interceptor.
	err := client.Session().Refresh(context.Background())
	assert.True(t, HasCode(err, CodeInvalidToken))
	assert.EqualValues(t, 1, atomic.LoadInt32(&api.refreshCalls))
}
