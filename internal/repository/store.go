// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package repository

import (
	"context"

	"github.com/codenoteai/codenote/pkg/pagination"
)

// # Repository Data Access

// Store defines the data access contract for registered repositories.
type Store interface {

	/*
		Create persists a newly registered repository.

		Parameters:
		  - context: context.Context
		  - repository: *Repository

		Returns:
		  - error: Constraint violations or connectivity failures
	*/
	Create(context context.Context, repository *Repository) error

	/*
		FindByID returns a repository owned by the given user.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - *Repository: Hydrated entity
		  - error: apperr.NotFound when absent or owned by someone else
	*/
	FindByID(context context.Context, ownerID, id string) (*Repository, error)

	/*
		ListByOwner returns the owner's repositories, newest first.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - params: pagination.Params

		Returns:
		  - []*Repository: One page of results
		  - int: Total count for pagination metadata
		  - error: Query failures
	*/
	ListByOwner(context context.Context, ownerID string, params pagination.Params) ([]*Repository, int, error)

	/*
		Update persists changes to a repository's mutable fields.

		Parameters:
		  - context: context.Context
		  - repository: *Repository

		Returns:
		  - error: Update failures
	*/
	Update(context context.Context, repository *Repository) error

	/*
		SetLastAnalysis records the most recent analysis for a repository.

		Parameters:
		  - context: context.Context
		  - repositoryID: string
		  - analysisID: string

		Returns:
		  - error: Update failures
	*/
	SetLastAnalysis(context context.Context, repositoryID, analysisID string) error

	/*
		Delete removes a repository owned by the given user.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - error: apperr.NotFound when absent or owned by someone else
	*/
	Delete(context context.Context, ownerID, id string) error
}
