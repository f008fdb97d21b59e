// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

// PostgreSQL implementation of the analysis storage contract.
//
// List-shaped fields (issues, suggestions, series) are stored as JSONB:
// they are read and written as whole documents, never queried into.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codenoteai/codenote/internal/platform/apperr"
)

// PostgresStore implements the Store interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// # Analysis Runs

/*
CreateAnalysis persists a new pending analysis run into core.analysis.

Parameters:
  - context: context.Context
  - analysis: *Analysis

Returns:
  - error: Storage failures
*/
func (store *PostgresStore) CreateAnalysis(context context.Context, analysis *Analysis) error {
	const query = `
		INSERT INTO core.analysis (
			id, repositoryid, ownerid, status, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	analysis.CreatedAt = now
	analysis.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		analysis.ID,
		analysis.RepositoryID,
		analysis.OwnerID,
		analysis.Status,
		analysis.CreatedAt,
		analysis.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_analysis_store_create_failed: %w", err)
	}

	return nil
}

/*
FindAnalysis retrieves an analysis owned by the given user.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - *Analysis: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindAnalysis(context context.Context, ownerID, id string) (*Analysis, error) {
	const query = `
		SELECT id, repositoryid, ownerid, status, qualityscore, securityscore,
		       performancescore, filesanalyzed, issues, suggestions, summary,
		       failurereason, startedat, completedat, createdat, updatedat
		FROM core.analysis
		WHERE id = $1 AND ownerid = $2`

	analysis := &Analysis{}
	var issues, suggestions []byte

	err := store.pool.QueryRow(context, query, id, ownerID).Scan(
		&analysis.ID,
		&analysis.RepositoryID,
		&analysis.OwnerID,
		&analysis.Status,
		&analysis.QualityScore,
		&analysis.SecurityScore,
		&analysis.PerformanceScore,
		&analysis.FilesAnalyzed,
		&issues,
		&suggestions,
		&analysis.Summary,
		&analysis.FailureReason,
		&analysis.StartedAt,
		&analysis.CompletedAt,
		&analysis.CreatedAt,
		&analysis.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Analysis")
		}
		return nil, fmt.Errorf("postgres_analysis_store_find_failed: %w", err)
	}

	if err := decodeJSONColumn(issues, &analysis.Issues); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(suggestions, &analysis.Suggestions); err != nil {
		return nil, err
	}

	return analysis, nil
}

/*
UpdateAnalysis persists worker-side state transitions.

Parameters:
  - context: context.Context
  - analysis: *Analysis

Returns:
  - error: Update failures
*/
func (store *PostgresStore) UpdateAnalysis(context context.Context, analysis *Analysis) error {
	const query = `
		UPDATE core.analysis
		SET status = $2, qualityscore = $3, securityscore = $4, performancescore = $5,
		    filesanalyzed = $6, issues = $7, suggestions = $8, summary = $9,
		    failurereason = $10, startedat = $11, completedat = $12, updatedat = $13
		WHERE id = $1`

	issues, err := encodeJSONColumn(analysis.Issues)
	if err != nil {
		return err
	}
	suggestions, err := encodeJSONColumn(analysis.Suggestions)
	if err != nil {
		return err
	}

	analysis.UpdatedAt = time.Now()
	_, err = store.pool.Exec(context, query,
		analysis.ID,
		analysis.Status,
		analysis.QualityScore,
		analysis.SecurityScore,
		analysis.PerformanceScore,
		analysis.FilesAnalyzed,
		issues,
		suggestions,
		analysis.Summary,
		analysis.FailureReason,
		analysis.StartedAt,
		analysis.CompletedAt,
		analysis.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_analysis_store_update_failed: %w", err)
	}

	return nil
}

// # File Reviews

/*
CreateFileAnalysis persists a synchronous single-file review.

Parameters:
  - context: context.Context
  - fileAnalysis: *FileAnalysis

Returns:
  - error: Storage failures
*/
func (store *PostgresStore) CreateFileAnalysis(context context.Context, fileAnalysis *FileAnalysis) error {
	const query = `
		INSERT INTO core.fileanalysis (
			id, repositoryid, ownerid, filepath, qualityscore, securityscore,
			performancescore, issues, suggestions, summary, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	issues, err := encodeJSONColumn(fileAnalysis.Issues)
	if err != nil {
		return err
	}
	suggestions, err := encodeJSONColumn(fileAnalysis.Suggestions)
	if err != nil {
		return err
	}

	fileAnalysis.CreatedAt = time.Now()
	_, err = store.pool.Exec(context, query,
		fileAnalysis.ID,
		fileAnalysis.RepositoryID,
		fileAnalysis.OwnerID,
		fileAnalysis.FilePath,
		fileAnalysis.QualityScore,
		fileAnalysis.SecurityScore,
		fileAnalysis.PerformanceScore,
		issues,
		suggestions,
		fileAnalysis.Summary,
		fileAnalysis.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_fileanalysis_store_create_failed: %w", err)
	}

	return nil
}

/*
FindFileAnalysis retrieves a file review owned by the given user.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - *FileAnalysis: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindFileAnalysis(context context.Context, ownerID, id string) (*FileAnalysis, error) {
	const query = `
		SELECT id, repositoryid, ownerid, filepath, qualityscore, securityscore,
		       performancescore, issues, suggestions, summary, createdat
		FROM core.fileanalysis
		WHERE id = $1 AND ownerid = $2`

	fileAnalysis := &FileAnalysis{}
	var issues, suggestions []byte

	err := store.pool.QueryRow(context, query, id, ownerID).Scan(
		&fileAnalysis.ID,
		&fileAnalysis.RepositoryID,
		&fileAnalysis.OwnerID,
		&fileAnalysis.FilePath,
		&fileAnalysis.QualityScore,
		&fileAnalysis.SecurityScore,
		&fileAnalysis.PerformanceScore,
		&issues,
		&suggestions,
		&fileAnalysis.Summary,
		&fileAnalysis.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("File analysis")
		}
		return nil, fmt.Errorf("postgres_fileanalysis_store_find_failed: %w", err)
	}

	if err := decodeJSONColumn(issues, &fileAnalysis.Issues); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(suggestions, &fileAnalysis.Suggestions); err != nil {
		return nil, err
	}

	return fileAnalysis, nil
}

// # Dashboards

/*
SaveUserAnalysis inserts or replaces the owner's dashboard.

Description: One dashboard per owner; regeneration overwrites in place via
ON CONFLICT on the owner column.

Parameters:
  - context: context.Context
  - userAnalysis: *UserAnalysis

Returns:
  - error: Storage failures
*/
func (store *PostgresStore) SaveUserAnalysis(context context.Context, userAnalysis *UserAnalysis) error {
	const query = `
		INSERT INTO core.useranalysis (
			id, ownerid, githublogin, totalrepos, totalstars, totalforks, followers,
			languages, monthly, heatmap, impactscore, repositories, generatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (ownerid) DO UPDATE SET
			id = EXCLUDED.id, githublogin = EXCLUDED.githublogin,
			totalrepos = EXCLUDED.totalrepos, totalstars = EXCLUDED.totalstars,
			totalforks = EXCLUDED.totalforks, followers = EXCLUDED.followers,
			languages = EXCLUDED.languages, monthly = EXCLUDED.monthly,
			heatmap = EXCLUDED.heatmap, impactscore = EXCLUDED.impactscore,
			repositories = EXCLUDED.repositories, generatedat = EXCLUDED.generatedat`

	languages, err := encodeJSONColumn(userAnalysis.Languages)
	if err != nil {
		return err
	}
	monthly, err := encodeJSONColumn(userAnalysis.Monthly)
	if err != nil {
		return err
	}
	heatmap, err := encodeJSONColumn(userAnalysis.Heatmap)
	if err != nil {
		return err
	}
	repositories, err := encodeJSONColumn(userAnalysis.Repositories)
	if err != nil {
		return err
	}

	_, err = store.pool.Exec(context, query,
		userAnalysis.ID,
		userAnalysis.OwnerID,
		userAnalysis.GitHubLogin,
		userAnalysis.TotalRepos,
		userAnalysis.TotalStars,
		userAnalysis.TotalForks,
		userAnalysis.Followers,
		languages,
		monthly,
		heatmap,
		userAnalysis.ImpactScore,
		repositories,
		userAnalysis.GeneratedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_useranalysis_store_save_failed: %w", err)
	}

	return nil
}

/*
FindUserAnalysis retrieves the owner's latest dashboard.

Parameters:
  - context: context.Context
  - ownerID: string

Returns:
  - *UserAnalysis: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindUserAnalysis(context context.Context, ownerID string) (*UserAnalysis, error) {
	const query = `
		SELECT id, ownerid, githublogin, totalrepos, totalstars, totalforks, followers,
		       languages, monthly, heatmap, impactscore, repositories, generatedat
		FROM core.useranalysis
		WHERE ownerid = $1`

	userAnalysis := &UserAnalysis{}
	var languages, monthly, heatmap, repositories []byte

	err := store.pool.QueryRow(context, query, ownerID).Scan(
		&userAnalysis.ID,
		&userAnalysis.OwnerID,
		&userAnalysis.GitHubLogin,
		&userAnalysis.TotalRepos,
		&userAnalysis.TotalStars,
		&userAnalysis.TotalForks,
		&userAnalysis.Followers,
		&languages,
		&monthly,
		&heatmap,
		&userAnalysis.ImpactScore,
		&repositories,
		&userAnalysis.GeneratedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User analysis")
		}
		return nil, fmt.Errorf("postgres_useranalysis_store_find_failed: %w", err)
	}

	if err := decodeJSONColumn(languages, &userAnalysis.Languages); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(monthly, &userAnalysis.Monthly); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(heatmap, &userAnalysis.Heatmap); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(repositories, &userAnalysis.Repositories); err != nil {
		return nil, err
	}

	return userAnalysis, nil
}

// # JSONB Helpers

// encodeJSONColumn marshals a document field; nil stays SQL NULL.
func encodeJSONColumn(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("postgres_analysis_store_encode_failed: %w", err)
	}
	return encoded, nil
}

// decodeJSONColumn unmarshals a document field; SQL NULL stays nil.
func decodeJSONColumn(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("postgres_analysis_store_decode_failed: %w", err)
	}
	return nil
}
