// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

// PostgreSQL implementation of the repository storage contract.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/pkg/pagination"
)

// PostgresStore implements the Store interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const repositoryColumns = `
	id, ownerid, name, fullname, description, url, defaultbranch, language,
	private, stars, forks, watchers, openissues, lastanalysisid, createdat, updatedat`

/*
Create persists a new repository record into the core.repository table.

Parameters:
  - context: context.Context
  - repository: *Repository

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (store *PostgresStore) Create(context context.Context, repository *Repository) error {
	const query = `
		INSERT INTO core.repository (
			id, ownerid, name, fullname, description, url, defaultbranch, language,
			private, stars, forks, watchers, openissues, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	now := time.Now()
	if repository.CreatedAt.IsZero() {
		repository.CreatedAt = now
	}
	repository.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		repository.ID,
		repository.OwnerID,
		repository.Name,
		repository.FullName,
		repository.Description,
		repository.URL,
		repository.DefaultBranch,
		repository.Language,
		repository.Private,
		repository.Stars,
		repository.Forks,
		repository.Watchers,
		repository.OpenIssues,
		repository.CreatedAt,
		repository.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_repository_store_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a repository owned by the given user.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - *Repository: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindByID(context context.Context, ownerID, id string) (*Repository, error) {
	query := `SELECT ` + repositoryColumns + `
		FROM core.repository
		WHERE id = $1 AND ownerid = $2`

	repository, err := scanRepository(store.pool.QueryRow(context, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Repository")
		}
		return nil, fmt.Errorf("postgres_repository_store_find_failed: %w", err)
	}

	return repository, nil
}

/*
ListByOwner retrieves one page of the owner's repositories, newest first.

Parameters:
  - context: context.Context
  - ownerID: string
  - params: pagination.Params

Returns:
  - []*Repository: One page of hydrated entities
  - int: Total row count
  - error: Query failures
*/
func (store *PostgresStore) ListByOwner(context context.Context, ownerID string, params pagination.Params) ([]*Repository, int, error) {
	const countQuery = `SELECT COUNT(*) FROM core.repository WHERE ownerid = $1`

	var total int
	if err := store.pool.QueryRow(context, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_repository_store_count_failed: %w", err)
	}

	query := `SELECT ` + repositoryColumns + `
		FROM core.repository
		WHERE ownerid = $1
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`

	rows, err := store.pool.Query(context, query, ownerID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_repository_store_list_failed: %w", err)
	}
	defer rows.Close()

	repositories := make([]*Repository, 0, params.Limit)
	for rows.Next() {
		repository, err := scanRepository(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_repository_store_scan_failed: %w", err)
		}
		repositories = append(repositories, repository)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_repository_store_rows_failed: %w", err)
	}

	return repositories, total, nil
}

/*
Update persists changes to a repository's mutable fields.

Parameters:
  - context: context.Context
  - repository: *Repository

Returns:
  - error: Update failures
*/
func (store *PostgresStore) Update(context context.Context, repository *Repository) error {
	const query = `
		UPDATE core.repository
		SET name = $2, description = $3, stars = $4, forks = $5, watchers = $6,
		    openissues = $7, updatedat = $8
		WHERE id = $1`

	repository.UpdatedAt = time.Now()
	_, err := store.pool.Exec(context, query,
		repository.ID,
		repository.Name,
		repository.Description,
		repository.Stars,
		repository.Forks,
		repository.Watchers,
		repository.OpenIssues,
		repository.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_repository_store_update_failed: %w", err)
	}

	return nil
}

/*
SetLastAnalysis records the most recent analysis for a repository.

Parameters:
  - context: context.Context
  - repositoryID: string
  - analysisID: string

Returns:
  - error: Update failures
*/
func (store *PostgresStore) SetLastAnalysis(context context.Context, repositoryID, analysisID string) error {
	const query = `UPDATE core.repository SET lastanalysisid = $2, updatedat = $3 WHERE id = $1`

	_, err := store.pool.Exec(context, query, repositoryID, analysisID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_repository_store_set_analysis_failed: %w", err)
	}
	return nil
}

/*
Delete removes a repository owned by the given user.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - error: apperr.NotFound when no row matched
*/
func (store *PostgresStore) Delete(context context.Context, ownerID, id string) error {
	const query = `DELETE FROM core.repository WHERE id = $1 AND ownerid = $2`

	tag, err := store.pool.Exec(context, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("postgres_repository_store_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Repository")
	}

	return nil
}

// scanRepository hydrates one row regardless of its source (QueryRow or Rows).
func scanRepository(row pgx.Row) (*Repository, error) {
	repository := &Repository{}
	var lastAnalysisID *string

	err := row.Scan(
		&repository.ID,
		&repository.OwnerID,
		&repository.Name,
		&repository.FullName,
		&repository.Description,
		&repository.URL,
		&repository.DefaultBranch,
		&repository.Language,
		&repository.Private,
		&repository.Stars,
		&repository.Forks,
		&repository.Watchers,
		&repository.OpenIssues,
		&lastAnalysisID,
		&repository.CreatedAt,
		&repository.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastAnalysisID != nil {
		repository.LastAnalysisID = *lastAnalysisID
	}

	return repository, nil
}
