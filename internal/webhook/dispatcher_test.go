// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/sec"
)

// # Fakes

type memoryStore struct {
	mutex sync.Mutex
	hooks map[string]*Webhook
}

func newMemoryStore() *memoryStore {
	return &memoryStore{hooks: make(map[string]*Webhook)}
}

func (store *memoryStore) Create(_ context.Context, webhook *Webhook) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	clone := *webhook
	store.hooks[webhook.ID] = &clone
	return nil
}

func (store *memoryStore) FindByID(_ context.Context, ownerID, id string) (*Webhook, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if hook, ok := store.hooks[id]; ok && hook.OwnerID == ownerID {
		clone := *hook
		return &clone, nil
	}
	return nil, apperr.NotFound("Webhook")
}

func (store *memoryStore) ListByOwner(_ context.Context, ownerID string) ([]*Webhook, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	var hooks []*Webhook
	for _, hook := range store.hooks {
		if hook.OwnerID == ownerID {
			clone := *hook
			hooks = append(hooks, &clone)
		}
	}
	return hooks, nil
}

func (store *memoryStore) ListActive(_ context.Context, ownerID, event string) ([]*Webhook, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	var hooks []*Webhook
	for _, hook := range store.hooks {
		if hook.OwnerID == ownerID && hook.Active && hook.Subscribed(event) {
			clone := *hook
			hooks = append(hooks, &clone)
		}
	}
	return hooks, nil
}

func (store *memoryStore) Update(_ context.Context, webhook *Webhook) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, ok := store.hooks[webhook.ID]; !ok {
		return apperr.NotFound("Webhook")
	}
	clone := *webhook
	store.hooks[webhook.ID] = &clone
	return nil
}

func (store *memoryStore) Delete(_ context.Context, ownerID, id string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if hook, ok := store.hooks[id]; ok && hook.OwnerID == ownerID {
		delete(store.hooks, id)
		return nil
	}
	return apperr.NotFound("Webhook")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func registerHook(t *testing.T, store *memoryStore, url string, events ...string) *Webhook {
	t.Helper()

	service := NewService(store)
	hook, err := service.Register(context.Background(), "user-1", RegisterInput{
		URL:    url,
		Events: events,
	})
	require.NoError(t, err)
	return hook
}

// # Delivery

func TestDispatcher_SignedDelivery(t *testing.T) {
	type received struct {
		body      []byte
		signature string
		eventType string
	}
	deliveries := make(chan received, 1)

	receiver := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		deliveries <- received{
			body:      body,
			signature: request.Header.Get(HeaderSignature),
			eventType: request.Header.Get(HeaderEventType),
		}
		writer.WriteHeader(http.StatusNoContent)
	}))
	defer receiver.Close()

	store := newMemoryStore()
	hook := registerHook(t, store, receiver.URL, EventAnalysisCompleted)

	dispatcher := NewDispatcher(store, testLogger())
	dispatcher.Publish(context.Background(), "user-1", EventAnalysisCompleted, map[string]string{"analysisId": "a-1"})

	delivery := <-deliveries
	assert.Equal(t, EventAnalysisCompleted, delivery.eventType)

	// The receiver can verify the payload with the secret issued at registration.
	require.True(t, len(delivery.signature) > len("sha256="))
	assert.True(t, sec.VerifyPayloadSignature(delivery.body, hook.Secret, delivery.signature[len("sha256="):]))

	var body envelope
	require.NoError(t, json.Unmarshal(delivery.body, &body))
	assert.Equal(t, EventAnalysisCompleted, body.Event)
}

func TestDispatcher_SkipsUnsubscribedEvents(t *testing.T) {
	hits := 0
	receiver := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		hits++
		writer.WriteHeader(http.StatusOK)
	}))
	defer receiver.Close()

	store := newMemoryStore()
	registerHook(t, store, receiver.URL, EventAnalysisFailed)

	dispatcher := NewDispatcher(store, testLogger())
	dispatcher.Publish(context.Background(), "user-1", EventAnalysisCompleted, nil)

	assert.Zero(t, hits)
}

func TestDispatcher_DeactivatesAfterRepeatedFailures(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
	}))
	defer receiver.Close()

	store := newMemoryStore()
	hook := registerHook(t, store, receiver.URL, EventAnalysisCompleted)

	dispatcher := NewDispatcher(store, testLogger())
	for attempt := 0; attempt < MaxConsecutiveFailures; attempt++ {
		dispatcher.Publish(context.Background(), "user-1", EventAnalysisCompleted, nil)
	}

	disabled, err := store.FindByID(context.Background(), "user-1", hook.ID)
	require.NoError(t, err)
	assert.False(t, disabled.Active)
	assert.Equal(t, MaxConsecutiveFailures, disabled.FailureCount)

	// Once deactivated the hook receives nothing further.
	dispatcher.Publish(context.Background(), "user-1", EventAnalysisCompleted, nil)
	unchanged, err := store.FindByID(context.Background(), "user-1", hook.ID)
	require.NoError(t, err)
	assert.Equal(t, MaxConsecutiveFailures, unchanged.FailureCount)
}

func TestDispatcher_SuccessResetsFailureStreak(t *testing.T) {
	failing := true
	receiver := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		if failing {
			writer.WriteHeader(http.StatusBadGateway)
			return
		}
		writer.WriteHeader(http.StatusOK)
	}))
	defer receiver.Close()

	store := newMemoryStore()
	hook := registerHook(t, store, receiver.URL, EventAnalysisCompleted)

	dispatcher := NewDispatcher(store, testLogger())
	dispatcher.Publish(context.Background(), "user-1", EventAnalysisCompleted, nil)
	dispatcher.Publish(context.Background(), "user-1", EventAnalysisCompleted, nil)

	failing = false
	dispatcher.Publish(context.Background(), "user-1", EventAnalysisCompleted, nil)

	recovered, err := store.FindByID(context.Background(), "user-1", hook.ID)
	require.NoError(t, err)
	assert.True(t, recovered.Active)
	assert.Zero(t, recovered.FailureCount)
}

// # Registration

func TestRegister_Validation(t *testing.T) {
	service := NewService(newMemoryStore())

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"empty url", RegisterInput{Events: []string{EventAnalysisCompleted}}},
		{"relative url", RegisterInput{URL: "/hooks", Events: []string{EventAnalysisCompleted}}},
		{"ftp scheme", RegisterInput{URL: "ftp://example.com/hook", Events: []string{EventAnalysisCompleted}}},
		{"no events", RegisterInput{URL: "https://example.com/hook"}},
		{"unknown event", RegisterInput{URL: "https://example.com/hook", Events: []string{"analysis.restarted"}}},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Register(context.Background(), "user-1", testCase.input)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})
	}
}

func TestRegister_IssuesDistinctSecrets(t *testing.T) {
	store := newMemoryStore()

	first := registerHook(t, store, "https://example.com/a", EventAnalysisCompleted)
	second := registerHook(t, store, "https://example.com/b", EventAnalysisCompleted)

	assert.NotEmpty(t, first.Secret)
	assert.NotEqual(t, first.Secret, second.Secret)
	assert.True(t, first.Active)
}
