// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package codenote is the Go client for the CodeNote API.

Authentication is cookie-based: the client keeps the session's access and
refresh cookies in an in-memory jar and transparently refreshes an expired
access token once per call before retrying. Session state (who is logged in,
whether bootstrap has run) lives in the [Coordinator] returned by
[Client.Session].

Usage:

	client, err := codenote.New("https://api.codenote.ai")
	if err != nil { ... }
	if err := client.Session().Init(ctx); err != nil { ... }
	repos, err := client.Repositories(ctx)
*/
package codenote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// defaultTimeout bounds every API call, refresh round trips included.
const defaultTimeout = 30 * time.Second

// apiPrefix is the versioned base path of the HTTP API.
const apiPrefix = "/api/v1"

// Paths excluded from the 401-retry interceptor: retrying them through the
// refresh path would recurse into itself.
const (
	sessionPath = "/auth/session"
	refreshPath = "/auth/refresh"
)

// Client is a CodeNote API client with cookie-based session handling.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	session    *Coordinator
}

// Option customizes a [Client].
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) { client.httpClient.Timeout = timeout }
}

// WithHTTPTransport swaps the underlying transport (e.g. for proxies).
func WithHTTPTransport(transport http.RoundTripper) Option {
	return func(client *Client) { client.httpClient.Transport = transport }
}

// New constructs a [Client] for the API at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("codenote: invalid base URL %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("codenote: cookie jar: %w", err)
	}

	client := &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
	}
	client.session = newCoordinator(client)

	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Session returns the client's session coordinator.
func (client *Client) Session() *Coordinator {
	return client.session
}

// # Cookie Persistence

// Cookies exports the session cookies currently held for the API host.
// Callers that outlive the process (CLIs) can persist and restore them.
//
// The refresh endpoint URL is used for matching because the refresh cookie
// is scoped to the auth subtree and would not match the API root.
func (client *Client) Cookies() []*http.Cookie {
	return client.httpClient.Jar.Cookies(client.baseURL.JoinPath(apiPrefix + refreshPath))
}

// SetCookies seeds the cookie jar, typically from a previous session.
//
// Jar round trips drop cookie attributes, so the path scope is rebuilt by
// name: the refresh token back onto the auth subtree, everything else onto
// the API root.
func (client *Client) SetCookies(cookies []*http.Cookie) {
	for _, cookie := range cookies {
		scoped := *cookie
		if scoped.Path == "" {
			scoped.Path = "/"
			if scoped.Name == "refreshToken" {
				scoped.Path = apiPrefix + "/auth"
			}
		}
		client.httpClient.Jar.SetCookies(client.baseURL.JoinPath(scoped.Path), []*http.Cookie{&scoped})
	}
}

// # Request Plumbing

/*
do performs one API call with the 401-retry interceptor.

If the response is a 401, the call has not been retried yet, and the target
is neither the session-check nor the refresh endpoint, the client refreshes
the session once and resubmits the original request with the new cookies.
A failed refresh propagates the original authorization error.
*/
func (client *Client) do(ctx context.Context, method, path string, body, target any) error {
	err := client.send(ctx, method, path, body, target)
	if err == nil || !isAuthFailure(err) {
		return err
	}
	if path == sessionPath || path == refreshPath {
		return err
	}

	if refreshErr := client.session.Refresh(ctx); refreshErr != nil {
		return err
	}
	return client.send(ctx, method, path, body, target)
}

// send performs one HTTP round trip and decodes the success envelope.
func (client *Client) send(ctx context.Context, method, path string, body, target any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("codenote: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	endpoint := client.baseURL.JoinPath(apiPrefix + path)
	request, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("codenote: build request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("codenote: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeError(response)
	}
	if target == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("codenote: decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("codenote: decode response: %w", err)
	}
	return nil
}

// # Repositories

// Repositories lists the caller's registered repositories.
func (client *Client) Repositories(ctx context.Context) ([]Repository, error) {
	var repositories []Repository
	if err := client.do(ctx, http.MethodGet, "/repositories", nil, &repositories); err != nil {
		return nil, err
	}
	return repositories, nil
}

// CreateRepositoryInput carries the fields for registering a repository.
type CreateRepositoryInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// CreateRepository registers a GitHub repository for analysis.
func (client *Client) CreateRepository(ctx context.Context, input CreateRepositoryInput) (*Repository, error) {
	var repository Repository
	if err := client.do(ctx, http.MethodPost, "/repositories", input, &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// GetRepository reads one registered repository.
func (client *Client) GetRepository(ctx context.Context, id string) (*Repository, error) {
	var repository Repository
	if err := client.do(ctx, http.MethodGet, "/repositories/"+url.PathEscape(id), nil, &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// DeleteRepository unregisters a repository.
func (client *Client) DeleteRepository(ctx context.Context, id string) error {
	return client.do(ctx, http.MethodDelete, "/repositories/"+url.PathEscape(id), nil, nil)
}

// # Analyses

// StartAnalysis kicks off an asynchronous analysis run for a repository.
func (client *Client) StartAnalysis(ctx context.Context, repositoryID string) (*Analysis, error) {
	var run Analysis
	path := "/repositories/" + url.PathEscape(repositoryID) + "/analyze"
	if err := client.do(ctx, http.MethodPost, path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetAnalysis reads one analysis run; poll until Status is terminal.
func (client *Client) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	var run Analysis
	if err := client.do(ctx, http.MethodGet, "/analyses/"+url.PathEscape(id), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// # Dashboards

// GenerateUserStats builds (or rebuilds) the contribution dashboard.
//
// An empty githubLogin uses the login stored on the caller's profile.
func (client *Client) GenerateUserStats(ctx context.Context, githubLogin string) (*UserStats, error) {
	body := map[string]string{}
	if strings.TrimSpace(githubLogin) != "" {
		body["github_login"] = githubLogin
	}

	var stats UserStats
	if err := client.do(ctx, http.MethodPost, "/stats/generate", body, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// UserStats reads the caller's latest contribution dashboard.
func (client *Client) UserStats(ctx context.Context) (*UserStats, error) {
	var stats UserStats
	if err := client.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
