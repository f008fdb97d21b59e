// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/github"
	"github.com/codenoteai/codenote/pkg/pagination"
	"github.com/codenoteai/codenote/pkg/uuidv7"
)

// # Contracts & Types

// MetadataFetcher resolves live repository metadata from GitHub.
//
// A nil fetcher is valid: registration then records exactly what the user
// supplied, with no enrichment.
type MetadataFetcher interface {
	Repository(context context.Context, owner, name string) (github.Repository, error)
}

// Service implements the repository registration use cases.
type Service struct {
	store   Store
	fetcher MetadataFetcher
}

// NewService constructs a new [Service].
func NewService(store Store, fetcher MetadataFetcher) *Service {
	return &Service{store: store, fetcher: fetcher}
}

// # Registration

// RegisterInput holds the data required to register a repository.
type RegisterInput struct {
	Name        string
	Description string
	URL         string
}

/*
Register records a GitHub repository for the owner and enriches it with live
metadata when a fetcher is configured.

Description: The GitHub lookup is best-effort on top of user-supplied data;
an API failure downgrades to an unenriched record instead of failing the
registration. A lookup that positively reports the repository missing is
surfaced, since analyzing a nonexistent repository can never succeed.

Parameters:
  - context: context.Context
  - ownerID: string
  - input: RegisterInput

Returns:
  - *Repository: Created entity
  - error: Validation or storage failures
*/
func (service *Service) Register(context context.Context, ownerID string, input RegisterInput) (*Repository, error) {
	githubOwner, githubName, err := SplitGitHubURL(input.URL)
	if err != nil {
		return nil, err
	}

	record := &Repository{
		ID:            uuidv7.New(),
		OwnerID:       ownerID,
		Name:          input.Name,
		FullName:      githubOwner + "/" + githubName,
		Description:   input.Description,
		URL:           input.URL,
		DefaultBranch: "main",
	}
	if record.Name == "" {
		record.Name = githubName
	}

	if service.fetcher != nil {
		metadata, fetchErr := service.fetcher.Repository(context, githubOwner, githubName)
		switch {
		case fetchErr == nil:
			applyMetadata(record, metadata)
		case apperr.HasCode(fetchErr, apperr.CodeNotFound):
			return nil, apperr.NotFound("GitHub repository")
		default:
			// Enrichment is optional; rate limits or outages must not block registration.
		}
	}

	if err := service.store.Create(context, record); err != nil {
		return nil, fmt.Errorf("repository_service_register_failed: %w", err)
	}

	return record, nil
}

// # Reads

// Get returns one repository owned by the caller.
func (service *Service) Get(context context.Context, ownerID, id string) (*Repository, error) {
	return service.store.FindByID(context, ownerID, id)
}

// List returns a page of the caller's repositories, newest first.
func (service *Service) List(context context.Context, ownerID string, params pagination.Params) ([]*Repository, int, error) {
	return service.store.ListByOwner(context, ownerID, params)
}

// # Mutation

// UpdateInput holds the mutable repository fields. Nil means "leave as is".
type UpdateInput struct {
	Name        *string
	Description *string
}

/*
Update applies partial changes to a repository the caller owns.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string
  - input: UpdateInput

Returns:
  - *Repository: Updated entity
  - error: NotFound or storage failures
*/
func (service *Service) Update(context context.Context, ownerID, id string, input UpdateInput) (*Repository, error) {
	record, err := service.store.FindByID(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		record.Name = *input.Name
	}
	if input.Description != nil {
		record.Description = *input.Description
	}

	if err := service.store.Update(context, record); err != nil {
		return nil, fmt.Errorf("repository_service_update_failed: %w", err)
	}

	return record, nil
}

// Delete removes a repository the caller owns.
func (service *Service) Delete(context context.Context, ownerID, id string) error {
	return service.store.Delete(context, ownerID, id)
}

// # Helpers

/*
SplitGitHubURL extracts the owner and repository segments from a GitHub URL.

Description: Accepts https://github.com/owner/name with optional trailing
path, .git suffix, or missing scheme. Anything else is a validation error.
*/
func SplitGitHubURL(rawURL string) (string, string, error) {
	trimmed := strings.TrimPrefix(rawURL, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "www.")

	if !strings.HasPrefix(trimmed, "github.com/") {
		return "", "", apperr.ValidationError("URL must point to a github.com repository")
	}

	segments := strings.Split(strings.TrimPrefix(trimmed, "github.com/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", apperr.ValidationError("URL must include both owner and repository name")
	}

	return segments[0], strings.TrimSuffix(segments[1], ".git"), nil
}

// applyMetadata copies live GitHub metadata onto the stored record.
func applyMetadata(record *Repository, metadata github.Repository) {
	record.FullName = metadata.FullName
	record.DefaultBranch = metadata.DefaultBranch
	record.Language = metadata.Language
	record.Private = metadata.Private
	record.Stars = metadata.Stars
	record.Forks = metadata.Forks
	record.Watchers = metadata.Watchers
	record.OpenIssues = metadata.OpenIssues
	if record.Description == "" {
		record.Description = metadata.Description
	}
}
