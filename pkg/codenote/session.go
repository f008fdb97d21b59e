// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package codenote

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNoSession indicates no refresh token was present: there is no session
// to recover, and nothing was torn down.
var ErrNoSession = errors.New("codenote: no active session")

/*
Coordinator is the client-side source of truth for "is this client
authenticated".

It owns three responsibilities:

  - Bootstrap: [Coordinator.Init] introspects the session once, attempting a
    single refresh when the access token is stale, and is idempotent across
    concurrent callers.
  - Refresh coalescing: any number of concurrent [Coordinator.Refresh] calls
    collapse into one network round trip; late callers share its outcome.
  - Teardown: an unrecoverable refresh failure forces a logout so local
    state can never stay authenticated against a dead session.

A logout bumps the session epoch. A refresh that completes after a logout
observes the stale epoch and discards its result, so a slow refresh can
never resurrect a session the user already ended.
*/
type Coordinator struct {
	client *Client

	mutex         sync.Mutex
	initialized   bool
	authenticated bool
	user          *User
	lastError     string
	epoch         uint64

	refreshGroup singleflight.Group
}

func newCoordinator(client *Client) *Coordinator {
	return &Coordinator{client: client}
}

// # State Accessors

// Authenticated reports whether the coordinator holds a live session.
func (coordinator *Coordinator) Authenticated() bool {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.authenticated
}

// Initialized reports whether bootstrap has completed for this epoch.
func (coordinator *Coordinator) Initialized() bool {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.initialized
}

// CurrentUser returns the profile of the authenticated user, or nil.
func (coordinator *Coordinator) CurrentUser() *User {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	if coordinator.user == nil {
		return nil
	}
	clone := *coordinator.user
	return &clone
}

// LastError returns the most recent human-readable auth error, if any.
func (coordinator *Coordinator) LastError() string {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.lastError
}

// # Bootstrap

/*
Init bootstraps session state; it is a no-op once bootstrap has completed.

Flow: introspect the session. On an auth failure (missing, expired, or
invalid access token) attempt exactly one refresh and re-check. Any other
outcome finalizes bootstrap as unauthenticated. Init always terminates with
Initialized() true, so a failed bootstrap can never loop.
*/
func (coordinator *Coordinator) Init(ctx context.Context) error {
	coordinator.mutex.Lock()
	if coordinator.initialized {
		coordinator.mutex.Unlock()
		return nil
	}
	coordinator.mutex.Unlock()

	user, err := coordinator.introspect(ctx)
	if err == nil {
		coordinator.markAuthenticated(user)
		return nil
	}

	if isAuthFailure(err) {
		if refreshErr := coordinator.Refresh(ctx); refreshErr == nil && coordinator.Authenticated() {
			return nil
		}
	}

	coordinator.mutex.Lock()
	coordinator.initialized = true
	coordinator.authenticated = false
	coordinator.user = nil
	coordinator.lastError = "Please login"
	coordinator.mutex.Unlock()
	return err
}

// # Login & Logout

// LoginInput carries credentials for [Coordinator.Login].
type LoginInput struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// Login authenticates and stores the returned profile.
func (coordinator *Coordinator) Login(ctx context.Context, input LoginInput) (*User, error) {
	var payload struct {
		User *User `json:"user"`
	}
	if err := coordinator.client.send(ctx, http.MethodPost, "/auth/login", input, &payload); err != nil {
		coordinator.mutex.Lock()
		coordinator.lastError = err.Error()
		coordinator.mutex.Unlock()
		return nil, err
	}

	coordinator.markAuthenticated(payload.User)
	return payload.User, nil
}

// Register creates an account; registration doubles as the first login.
func (coordinator *Coordinator) Register(ctx context.Context, username, email, password string) (*User, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}

	var payload struct {
		User *User `json:"user"`
	}
	if err := coordinator.client.send(ctx, http.MethodPost, "/auth/register", body, &payload); err != nil {
		return nil, err
	}

	coordinator.markAuthenticated(payload.User)
	return payload.User, nil
}

/*
Logout ends the session.

The server call is best effort: local state resets unconditionally so the
client can never stay stuck authenticated behind a failed network call.
Resetting also bumps the epoch, invalidating any refresh still in flight.
*/
func (coordinator *Coordinator) Logout(ctx context.Context) error {
	err := coordinator.client.send(ctx, http.MethodPost, "/auth/logout", nil, nil)

	coordinator.mutex.Lock()
	coordinator.initialized = false
	coordinator.authenticated = false
	coordinator.user = nil
	coordinator.lastError = ""
	coordinator.epoch++
	coordinator.mutex.Unlock()

	return err
}

// # Refresh

/*
Refresh rotates the session's token pair.

Concurrent callers coalesce into one network call and share its result.
Outcome handling:

  - Success: the new cookie pair is in the jar and the returned profile
    replaces local state (unless a logout raced the refresh).
  - MISSING_TOKEN: there was never a session to refresh; state is left
    untouched and [ErrNoSession] is returned.
  - Any other auth failure: the session is dead — force a logout.
  - Network errors: returned as-is with no state change, so a flaky
    connection cannot log the user out.
*/
func (coordinator *Coordinator) Refresh(ctx context.Context) error {
	_, err, _ := coordinator.refreshGroup.Do("refresh", func() (any, error) {
		return nil, coordinator.refreshOnce(ctx)
	})
	return err
}

func (coordinator *Coordinator) refreshOnce(ctx context.Context) error {
	coordinator.mutex.Lock()
	startEpoch := coordinator.epoch
	coordinator.mutex.Unlock()

	var payload struct {
		User *User `json:"user"`
	}
	err := coordinator.client.send(ctx, http.MethodPost, refreshPath, nil, &payload)
	if err == nil {
		coordinator.mutex.Lock()
		if coordinator.epoch == startEpoch {
			coordinator.initialized = true
			coordinator.authenticated = true
			coordinator.user = payload.User
			coordinator.lastError = ""
		}
		coordinator.mutex.Unlock()
		return nil
	}

	if HasCode(err, CodeMissingToken) {
		coordinator.mutex.Lock()
		if coordinator.epoch == startEpoch {
			coordinator.initialized = true
			coordinator.authenticated = false
		}
		coordinator.mutex.Unlock()
		return ErrNoSession
	}

	if isAuthFailure(err) {
		// The refresh token itself is dead; tear the session down.
		_ = coordinator.Logout(ctx)
		return err
	}

	// Network failure: no verdict on the session, change nothing.
	return err
}

// # Internals

// introspect calls the session-check endpoint directly, bypassing the
// retry interceptor.
func (coordinator *Coordinator) introspect(ctx context.Context) (*User, error) {
	var payload struct {
		User *User `json:"user"`
	}
	if err := coordinator.client.send(ctx, http.MethodGet, sessionPath, nil, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

func (coordinator *Coordinator) markAuthenticated(user *User) {
	coordinator.mutex.Lock()
	coordinator.initialized = true
	coordinator.authenticated = true
	coordinator.user = user
	coordinator.lastError = ""
	coordinator.mutex.Unlock()
}
