// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/queue"
	"github.com/codenoteai/codenote/internal/repository"
	"github.com/codenoteai/codenote/pkg/uuidv7"
)

// # Contracts & Types

// RepositoryCatalog is the slice of the repository store the engine needs.
type RepositoryCatalog interface {
	FindByID(context context.Context, ownerID, id string) (*repository.Repository, error)
	SetLastAnalysis(context context.Context, repositoryID, analysisID string) error
}

// JobEnqueuer hands analysis runs to the background queue.
type JobEnqueuer interface {
	Enqueue(context context.Context, jobType string, payload any) (string, error)
}

// EventPublisher fans an event out to the owner's registered webhooks.
// A nil publisher disables webhook delivery.
type EventPublisher interface {
	Publish(context context.Context, ownerID, event string, payload any)
}

// StatsCache shields the GitHub aggregation path from repeated API walks.
type StatsCache interface {
	Get(context context.Context, key string, target any) error
	Set(context context.Context, key string, value any, ttl time.Duration) error
}

// statsCacheTTL is how long a generated dashboard aggregation stays fresh.
const statsCacheTTL = 1 * time.Hour

// AnalyzeJobPayload is the queue payload for one repository analysis run.
type AnalyzeJobPayload struct {
	AnalysisID   string `json:"analysisId"`
	RepositoryID string `json:"repositoryId"`
	OwnerID      string `json:"ownerId"`
}

// Webhook event names emitted by the engine.
const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
)

// Service orchestrates analysis runs, file reviews, and dashboards.
type Service struct {
	store        Store
	repositories RepositoryCatalog
	browser      SourceBrowser
	reviewer     CodeReviewer
	jobs         JobEnqueuer
	events       EventPublisher
	statsCache   StatsCache
}

// NewService constructs the analysis engine.
//
// browser and reviewer may be nil in reduced configurations: without a
// browser, repository runs and dashboards fail cleanly with
// SERVICE_UNAVAILABLE; without a reviewer, files receive placeholder scores.
func NewService(
	store Store,
	repositories RepositoryCatalog,
	browser SourceBrowser,
	reviewer CodeReviewer,
	jobs JobEnqueuer,
	events EventPublisher,
	statsCache StatsCache,
) *Service {
	return &Service{
		store:        store,
		repositories: repositories,
		browser:      browser,
		reviewer:     reviewer,
		jobs:         jobs,
		events:       events,
		statsCache:   statsCache,
	}
}

// RegisterJobs binds the engine's background handlers to the queue.
func (service *Service) RegisterJobs(jobQueue *queue.Queue) {
	jobQueue.Register(queue.JobTypeAnalyzeRepository, service.handleAnalyzeJob)
}

// # Repository Analysis

/*
Start creates a pending analysis for a repository and enqueues the run.

Parameters:
  - context: context.Context
  - ownerID: string
  - repositoryID: string

Returns:
  - *Analysis: The pending record (callers poll it for completion)
  - error: NotFound, ServiceUnavailable, or storage failures
*/
func (service *Service) Start(context context.Context, ownerID, repositoryID string) (*Analysis, error) {
	if service.browser == nil {
		return nil, apperr.ServiceUnavailable("Repository analysis requires a configured GitHub integration")
	}

	// Ownership gate before any work is queued.
	record, err := service.repositories.FindByID(context, ownerID, repositoryID)
	if err != nil {
		return nil, err
	}

	run := &Analysis{
		ID:           uuidv7.New(),
		RepositoryID: record.ID,
		OwnerID:      ownerID,
		Status:       StatusPending,
	}

	if err := service.store.CreateAnalysis(context, run); err != nil {
		return nil, fmt.Errorf("analysis_service_create_failed: %w", err)
	}

	_, err = service.jobs.Enqueue(context, queue.JobTypeAnalyzeRepository, AnalyzeJobPayload{
		AnalysisID:   run.ID,
		RepositoryID: record.ID,
		OwnerID:      ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis_service_enqueue_failed: %w", err)
	}

	return run, nil
}

// Get returns an analysis owned by the caller.
func (service *Service) Get(context context.Context, ownerID, id string) (*Analysis, error) {
	return service.store.FindAnalysis(context, ownerID, id)
}

// handleAnalyzeJob is the queue entry point for one repository run.
func (service *Service) handleAnalyzeJob(context context.Context, raw json.RawMessage) error {
	var payload AnalyzeJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("analysis_job_decode_failed: %w", err)
	}

	return service.Run(context, payload)
}

/*
Run executes one repository analysis end to end.

Description: Marks the record running, walks the repository tree, reviews
each selected file, aggregates the results, and finishes in completed or
failed. Completion also stamps the repository's lastAnalysis pointer and
publishes the matching webhook event.

Parameters:
  - context: context.Context
  - payload: AnalyzeJobPayload

Returns:
  - error: Retryable failures (the queue re-runs the job); terminal failures
    are recorded on the analysis row and return nil
*/
func (service *Service) Run(context context.Context, payload AnalyzeJobPayload) error {
	run, err := service.store.FindAnalysis(context, payload.OwnerID, payload.AnalysisID)
	if err != nil {
		// The row is gone; retrying cannot help.
		return nil
	}

	startedAt := time.Now().UTC()
	run.Status = StatusRunning
	run.StartedAt = &startedAt
	if err := service.store.UpdateAnalysis(context, run); err != nil {
		return fmt.Errorf("analysis_run_mark_running_failed: %w", err)
	}

	insights, filesAnalyzed, reviewErr := service.reviewRepository(context, payload)
	if reviewErr != nil {
		service.finishFailed(context, run, reviewErr)
		return nil
	}

	aggregate(run, insights)
	run.FilesAnalyzed = filesAnalyzed

	completedAt := time.Now().UTC()
	run.Status = StatusCompleted
	run.CompletedAt = &completedAt
	if err := service.store.UpdateAnalysis(context, run); err != nil {
		return fmt.Errorf("analysis_run_mark_completed_failed: %w", err)
	}

	if err := service.repositories.SetLastAnalysis(context, run.RepositoryID, run.ID); err != nil {
		return fmt.Errorf("analysis_run_stamp_repository_failed: %w", err)
	}

	if service.events != nil {
		service.events.Publish(context, run.OwnerID, EventAnalysisCompleted, run)
	}

	return nil
}

// reviewRepository walks the tree and reviews every selected file.
func (service *Service) reviewRepository(context context.Context, payload AnalyzeJobPayload) ([]fileInsight, int, error) {
	record, err := service.repositories.FindByID(context, payload.OwnerID, payload.RepositoryID)
	if err != nil {
		return nil, 0, fmt.Errorf("repository no longer registered: %w", err)
	}

	githubOwner, githubName, err := repository.SplitGitHubURL(record.URL)
	if err != nil {
		return nil, 0, fmt.Errorf("repository URL is not analyzable: %w", err)
	}

	files, err := service.browser.ListCodeFiles(context, githubOwner, githubName, record.DefaultBranch)
	if err != nil {
		return nil, 0, fmt.Errorf("listing source files failed: %w", err)
	}
	if len(files) == 0 {
		return nil, 0, errors.New("repository contains no analyzable source files")
	}

	insights := make([]fileInsight, 0, len(files))
	for _, file := range files {
		content, err := service.browser.FileContent(context, githubOwner, githubName, file.Path)
		if err != nil {
			// One unreadable file should not sink the run.
			continue
		}

		insight, err := service.review(context, file.Path, content)
		if err != nil {
			return nil, 0, fmt.Errorf("reviewing %s failed: %w", file.Path, err)
		}

		insights = append(insights, fileInsight{path: file.Path, insight: insight})
	}

	if len(insights) == 0 {
		return nil, 0, errors.New("no source file could be read")
	}

	return insights, len(insights), nil
}

// finishFailed records a terminal failure and publishes the failed event.
func (service *Service) finishFailed(context context.Context, run *Analysis, cause error) {
	completedAt := time.Now().UTC()
	run.Status = StatusFailed
	run.FailureReason = cause.Error()
	run.CompletedAt = &completedAt
	_ = service.store.UpdateAnalysis(context, run)

	if service.events != nil {
		service.events.Publish(context, run.OwnerID, EventAnalysisFailed, run)
	}
}
