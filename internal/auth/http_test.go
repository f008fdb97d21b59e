// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/middleware"
	"github.com/codenoteai/codenote/internal/platform/sec"
)

// # In-Memory Repository

// memoryUserRepository is a map-backed UserRepository for handler tests.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*User)}
}

func (repository *memoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryUserRepository) Update(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	return repository.findBy(func(user *User) bool { return user.Email == email })
}

func (repository *memoryUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	return repository.findBy(func(user *User) bool { return user.Username == username })
}

func (repository *memoryUserRepository) findBy(match func(*User) bool) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, user := range repository.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUserRepository) delete(id string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.users, id)
}

// # Test Harness

type authHarness struct {
	server     *httptest.Server
	client     *http.Client
	repository *memoryUserRepository
	tokens     *sec.TokenService
}

// newAuthHarness wires the full auth surface behind a real HTTP server and a
// cookie-jar client, so cookie paths behave exactly as in production.
func newAuthHarness(t *testing.T, accessTTL time.Duration) *authHarness {
	t.Helper()

	tokens, err := sec.NewTokenService(
		"access-secret-for-tests",
		"refresh-secret-for-tests",
		accessTTL,
		7*24*time.Hour,
		"codenote.test",
	)
	require.NoError(t, err)

	repository := newMemoryUserRepository()
	handler := NewHandler(NewService(repository, tokens), false)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens))
	router.Mount("/api/v1/auth", handler.Routes())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &authHarness{
		server:     server,
		client:     &http.Client{Jar: jar},
		repository: repository,
		tokens:     tokens,
	}
}

func (harness *authHarness) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	response, err := harness.client.Post(harness.server.URL+path, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	return response
}

func (harness *authHarness) get(t *testing.T, path string) *http.Response {
	t.Helper()

	response, err := harness.client.Get(harness.server.URL + path)
	require.NoError(t, err)
	return response
}

func (harness *authHarness) register(t *testing.T, username, email, password string) {
	t.Helper()

	response := harness.post(t, "/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	defer response.Body.Close()
	require.Equal(t, http.StatusCreated, response.StatusCode)
}

// jarCookies snapshots the cookie values the jar would send to the refresh
// endpoint, which is inside both cookie paths.
func (harness *authHarness) jarCookies(t *testing.T) map[string]string {
	t.Helper()

	target, err := url.Parse(harness.server.URL + "/api/v1/auth/refresh")
	require.NoError(t, err)

	values := map[string]string{}
	for _, cookie := range harness.client.Jar.Cookies(target) {
		values[cookie.Name] = cookie.Value
	}
	return values
}

// decodeErrorCode pulls the machine-readable code from an error envelope.
func decodeErrorCode(t *testing.T, response *http.Response) string {
	t.Helper()

	var envelope struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&envelope))
	return envelope.Code
}

// # Scenarios

func TestAuthFlow_RegisterThenSession(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)

	response := harness.post(t, "/api/v1/auth/register", map[string]string{
		"username": "octocat",
		"email":    "octo@codenote.ai",
		"password": "hunter2hunter2",
	})
	defer response.Body.Close()
	require.Equal(t, http.StatusCreated, response.StatusCode)

	// Both cookies must come back with their scoped paths.
	cookiePaths := map[string]string{}
	for _, cookie := range response.Cookies() {
		cookiePaths[cookie.Name] = cookie.Path
		assert.True(t, cookie.HttpOnly, "%s must be httpOnly", cookie.Name)
	}
	assert.Equal(t, "/", cookiePaths["accessToken"])
	assert.Equal(t, "/api/v1/auth", cookiePaths["refreshToken"])

	sessionResponse := harness.get(t, "/api/v1/auth/session")
	defer sessionResponse.Body.Close()
	require.Equal(t, http.StatusOK, sessionResponse.StatusCode)

	var envelope struct {
		Data struct {
			Authenticated bool `json:"authenticated"`
			User          User `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(sessionResponse.Body).Decode(&envelope))
	assert.True(t, envelope.Data.Authenticated)
	assert.Equal(t, "octocat", envelope.Data.User.Username)
}

func TestAuthFlow_RegisterConflicts(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	response := harness.post(t, "/api/v1/auth/register", map[string]string{
		"username": "other",
		"email":    "octo@codenote.ai",
		"password": "hunter2hunter2",
	})
	defer response.Body.Close()

	require.Equal(t, http.StatusConflict, response.StatusCode)
	assert.Equal(t, apperr.CodeConflict, decodeErrorCode(t, response))
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	response := harness.post(t, "/api/v1/auth/login", map[string]string{
		"username": "octocat",
		"password": "wrong-password",
	})
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, apperr.CodeInvalidCredential, decodeErrorCode(t, response))
}

func TestAuthFlow_LoginByEmailOrUsername(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	byEmail := harness.post(t, "/api/v1/auth/login", map[string]string{
		"email":    "octo@codenote.ai",
		"password": "hunter2hunter2",
	})
	defer byEmail.Body.Close()
	require.Equal(t, http.StatusOK, byEmail.StatusCode)

	byUsername := harness.post(t, "/api/v1/auth/login", map[string]string{
		"username": "octocat",
		"password": "hunter2hunter2",
	})
	defer byUsername.Body.Close()
	require.Equal(t, http.StatusOK, byUsername.StatusCode)
}

func TestAuthFlow_LoginWithoutIdentity(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	response := harness.post(t, "/api/v1/auth/login", map[string]string{
		"password": "hunter2hunter2",
	})
	defer response.Body.Close()

	require.Equal(t, http.StatusBadRequest, response.StatusCode)
	assert.Equal(t, apperr.CodeValidation, decodeErrorCode(t, response))
}

func TestAuthFlow_SessionWithoutCookie(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)

	response := harness.get(t, "/api/v1/auth/session")
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, apperr.CodeMissingToken, decodeErrorCode(t, response))
}

func TestAuthFlow_RefreshWithoutCookie(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)

	response := harness.post(t, "/api/v1/auth/refresh", map[string]string{})
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, apperr.CodeMissingToken, decodeErrorCode(t, response))
}

func TestAuthFlow_RefreshRotatesPair(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	before := harness.jarCookies(t)

	response := harness.post(t, "/api/v1/auth/refresh", map[string]string{})
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	after := harness.jarCookies(t)

	require.NotEmpty(t, before["accessToken"])
	require.NotEmpty(t, before["refreshToken"])
	assert.NotEqual(t, before["accessToken"], after["accessToken"])
	assert.NotEqual(t, before["refreshToken"], after["refreshToken"])
}

func TestAuthFlow_RefreshWithGarbageToken(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)

	request, err := http.NewRequest(http.MethodPost, harness.server.URL+"/api/v1/auth/refresh", nil)
	require.NoError(t, err)
	request.AddCookie(&http.Cookie{Name: "refreshToken", Value: "not-a-jwt"})

	response, err := harness.client.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, apperr.CodeInvalidToken, decodeErrorCode(t, response))

	// A failed rotation must clear the dead cookies.
	for _, cookie := range response.Cookies() {
		assert.Less(t, cookie.MaxAge, 0, "%s must be expired", cookie.Name)
	}
}

func TestAuthFlow_RefreshForDeletedUser(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	user, err := harness.repository.FindByUsername(context.Background(), "octocat")
	require.NoError(t, err)
	harness.repository.delete(user.ID)

	response := harness.post(t, "/api/v1/auth/refresh", map[string]string{})
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, apperr.CodeUserNotFound, decodeErrorCode(t, response))
}

func TestAuthFlow_ExpiredAccessToken(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	user, err := harness.repository.FindByUsername(context.Background(), "octocat")
	require.NoError(t, err)

	// Sign an already-expired access token with the real secrets and present
	// it by hand; a cookie jar would refuse to store an expired cookie.
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

	request, err := http.NewRequest(http.MethodGet, harness.server.URL+"/api/v1/auth/session", nil)
	require.NoError(t, err)
	request.AddCookie(&http.Cookie{Name: "accessToken", Value: pair.AccessToken})

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Equal(t, apperr.CodeExpiredToken, decodeErrorCode(t, response))

	// The refresh cookie in the jar is untouched; rotation still succeeds.
	refreshResponse := harness.post(t, "/api/v1/auth/refresh", map[string]string{})
	defer refreshResponse.Body.Close()
	assert.Equal(t, http.StatusOK, refreshResponse.StatusCode)
}

func TestAuthFlow_Logout(t *testing.T) {
	harness := newAuthHarness(t, 15*time.Minute)
	harness.register(t, "octocat", "octo@codenote.ai", "hunter2hunter2")

	response := harness.post(t, "/api/v1/auth/logout", map[string]string{})
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	for _, cookie := range response.Cookies() {
		assert.Less(t, cookie.MaxAge, 0, "%s must be expired", cookie.Name)
	}

	// The jar honored the expirations: the session check is anonymous again.
	sessionResponse := harness.get(t, "/api/v1/auth/session")
	defer sessionResponse.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, sessionResponse.StatusCode)
}
