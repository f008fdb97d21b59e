// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package analysis

import "context"

// # Analysis Data Access

// Store defines the data access contract for the three analysis entity
// families. The worker updates analyses without ownership scoping; all
// reads exposed over HTTP are owner-scoped.
type Store interface {

	/*
		CreateAnalysis persists a new pending analysis run.

		Parameters:
		  - context: context.Context
		  - analysis: *Analysis

		Returns:
		  - error: Storage failures
	*/
	CreateAnalysis(context context.Context, analysis *Analysis) error

	/*
		FindAnalysis returns an analysis owned by the given user.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - *Analysis: Hydrated entity
		  - error: apperr.NotFound when absent or foreign
	*/
	FindAnalysis(context context.Context, ownerID, id string) (*Analysis, error)

	/*
		UpdateAnalysis persists worker-side state transitions.

		Parameters:
		  - context: context.Context
		  - analysis: *Analysis

		Returns:
		  - error: Update failures
	*/
	UpdateAnalysis(context context.Context, analysis *Analysis) error

	/*
		CreateFileAnalysis persists a synchronous single-file review.

		Parameters:
		  - context: context.Context
		  - fileAnalysis: *FileAnalysis

		Returns:
		  - error: Storage failures
	*/
	CreateFileAnalysis(context context.Context, fileAnalysis *FileAnalysis) error

	/*
		FindFileAnalysis returns a file analysis owned by the given user.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - *FileAnalysis: Hydrated entity
		  - error: apperr.NotFound when absent or foreign
	*/
	FindFileAnalysis(context context.Context, ownerID, id string) (*FileAnalysis, error)

	/*
		SaveUserAnalysis inserts or replaces the owner's dashboard.

		Parameters:
		  - context: context.Context
		  - userAnalysis: *UserAnalysis

		Returns:
		  - error: Storage failures
	*/
	SaveUserAnalysis(context context.Context, userAnalysis *UserAnalysis) error

	/*
		FindUserAnalysis returns the owner's latest dashboard.

		Parameters:
		  - context: context.Context
		  - ownerID: string

		Returns:
		  - *UserAnalysis: Hydrated entity
		  - error: apperr.NotFound when never generated
	*/
	FindUserAnalysis(context context.Context, ownerID string) (*UserAnalysis, error)
}
