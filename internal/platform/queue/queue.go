// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package queue implements a Redis-backed job queue for background work.

Analysis runs are expensive (GitHub tree walks plus one model call per file),
so the API enqueues them and a worker drains the queue out of band.

Core Responsibilities:

  - Durability: Jobs live in a Redis list and survive API restarts.
  - Retry: Failed jobs are re-enqueued until MaxAttempts is exhausted.
  - Dispatch: Handlers are registered per job type; unknown types are dropped
    with a log line rather than poisoning the queue.
*/
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codenoteai/codenote/internal/platform/constants"
	"github.com/codenoteai/codenote/pkg/uuidv7"
)

// Job type identifiers.
const (
	JobTypeAnalyzeRepository = "analyze_repository"
)

// MaxAttempts is the total number of tries a job gets before being dropped.
const MaxAttempts = 3

// popTimeout bounds each blocking pop so the worker can observe cancellation.
const popTimeout = 2 * time.Second

// Job is the unit of background work carried through Redis.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Handler processes a single job payload.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Queue is a Redis list producer/consumer pair.
type Queue struct {
	client   *redis.Client
	logger   *slog.Logger
	handlers map[string]Handler
}

// New constructs a Queue with no registered handlers.
func New(client *redis.Client, logger *slog.Logger) *Queue {
	return &Queue{
		client:   client,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type. Not safe to call once Run has started.
func (queue *Queue) Register(jobType string, handler Handler) {
	queue.handlers[jobType] = handler
}

/*
Enqueue appends a new job to the queue.

Parameters:
  - context: context.Context
  - jobType: string (one of the JobType constants)
  - payload: any (JSON-encodable job arguments)

Returns:
  - string: The generated job ID
  - error: Encoding or storage failures
*/
func (queue *Queue) Enqueue(context context.Context, jobType string, payload any) (string, error) {
	encodedPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("queue_encode_payload_failed: %w", err)
	}

	job := Job{
		ID:         uuidv7.New(),
		Type:       jobType,
		Payload:    encodedPayload,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := queue.push(context, job); err != nil {
		return "", err
	}

	queue.logger.InfoContext(context, "job enqueued", "job_id", job.ID, "job_type", job.Type)
	return job.ID, nil
}

/*
Run drains the queue until the context is cancelled.

Description: Each iteration blocks on the list for at most popTimeout, so
cancellation is observed within that window. A handler failure re-enqueues
the job with an incremented attempt counter until MaxAttempts is reached.

Parameters:
  - context: context.Context (cancel to stop the worker)

Returns:
  - error: nil on clean shutdown; connectivity failures otherwise
*/
func (queue *Queue) Run(context context.Context) error {
	queue.logger.InfoContext(context, "queue worker started")

	for {
		if context.Err() != nil {
			queue.logger.InfoContext(context, "queue worker stopped")
			return nil
		}

		job, ok, err := queue.pop(context)
		if err != nil {
			if context.Err() != nil {
				queue.logger.InfoContext(context, "queue worker stopped")
				return nil
			}
			return err
		}
		if !ok {
			continue
		}

		queue.process(context, job)
	}
}

// Length reports the number of pending jobs.
func (queue *Queue) Length(context context.Context) (int64, error) {
	length, err := queue.client.LLen(context, constants.RedisPrefixQueue).Result()
	if err != nil {
		return 0, fmt.Errorf("queue_length_failed: %w", err)
	}
	return length, nil
}

// process dispatches one job and handles its retry bookkeeping.
func (queue *Queue) process(context context.Context, job Job) {
	handler, ok := queue.handlers[job.Type]
	if !ok {
		queue.logger.WarnContext(context, "job dropped: no handler", "job_id", job.ID, "job_type", job.Type)
		return
	}

	if err := handler(context, job.Payload); err != nil {
		job.Attempts++

		if job.Attempts >= MaxAttempts {
			queue.logger.ErrorContext(context, "job failed permanently",
				"job_id", job.ID, "job_type", job.Type, "attempts", job.Attempts, "error", err)
			return
		}

		queue.logger.WarnContext(context, "job failed, retrying",
			"job_id", job.ID, "job_type", job.Type, "attempts", job.Attempts, "error", err)

		if pushErr := queue.push(context, job); pushErr != nil {
			queue.logger.ErrorContext(context, "job requeue failed", "job_id", job.ID, "error", pushErr)
		}
		return
	}

	queue.logger.InfoContext(context, "job completed", "job_id", job.ID, "job_type", job.Type)
}

// push appends the encoded job to the Redis list.
func (queue *Queue) push(context context.Context, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue_encode_job_failed: %w", err)
	}

	if err := queue.client.LPush(context, constants.RedisPrefixQueue, encoded).Err(); err != nil {
		return fmt.Errorf("queue_push_failed: %w", err)
	}

	return nil
}

// pop blocks for up to popTimeout waiting for a job. ok is false on timeout.
func (queue *Queue) pop(context context.Context) (Job, bool, error) {
	result, err := queue.client.BRPop(context, popTimeout, constants.RedisPrefixQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, false, nil
		}
		return Job{}, false, fmt.Errorf("queue_pop_failed: %w", err)
	}

	// BRPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		queue.logger.ErrorContext(context, "job dropped: malformed payload", "error", err)
		return Job{}, false, nil
	}

	return job, true, nil
}
