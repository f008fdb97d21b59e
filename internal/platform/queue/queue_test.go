// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyzePayload struct {
	RepositoryID string `json:"repositoryId"`
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, logger)
}

func TestQueue_EnqueueLength(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	jobID, err := queue.Enqueue(ctx, JobTypeAnalyzeRepository, analyzePayload{RepositoryID: "r1"})
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	length, err := queue.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestQueue_RunProcessesJob(t *testing.T) {
	queue := newTestQueue(t)

	done := make(chan analyzePayload, 1)
	queue.Register(JobTypeAnalyzeRepository, func(_ context.Context, payload json.RawMessage) error {
		var decoded analyzePayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return err
		}
		done <- decoded
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := queue.Enqueue(ctx, JobTypeAnalyzeRepository, analyzePayload{RepositoryID: "r1"})
	require.NoError(t, err)

	workerErr := make(chan error, 1)
	go func() { workerErr <- queue.Run(ctx) }()

	select {
	case decoded := <-done:
		assert.Equal(t, "r1", decoded.RepositoryID)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed in time")
	}

	cancel()
	require.NoError(t, <-workerErr)
}

func TestQueue_RetryUntilMaxAttempts(t *testing.T) {
	queue := newTestQueue(t)

	var calls atomic.Int64
	exhausted := make(chan struct{})
	queue.Register(JobTypeAnalyzeRepository, func(_ context.Context, _ json.RawMessage) error {
		if calls.Add(1) == MaxAttempts {
			close(exhausted)
		}
		return errors.New("model unavailable")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := queue.Enqueue(ctx, JobTypeAnalyzeRepository, analyzePayload{RepositoryID: "r1"})
	require.NoError(t, err)

	workerErr := make(chan error, 1)
	go func() { workerErr <- queue.Run(ctx) }()

	select {
	case <-exhausted:
	case <-time.After(10 * time.Second):
		t.Fatal("job retries did not complete in time")
	}

	cancel()
	require.NoError(t, <-workerErr)

	// The job must be dropped after its final failure, never re-enqueued.
	assert.Equal(t, int64(MaxAttempts), calls.Load())
	length, err := queue.Length(context.Background())
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestQueue_UnknownTypeDropped(t *testing.T) {
	queue := newTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := queue.Enqueue(ctx, "no_such_type", analyzePayload{RepositoryID: "r1"})
	require.NoError(t, err)

	workerErr := make(chan error, 1)
	go func() { workerErr <- queue.Run(ctx) }()

	require.Eventually(t, func() bool {
		length, lengthErr := queue.Length(context.Background())
		return lengthErr == nil && length == 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-workerErr)
}
