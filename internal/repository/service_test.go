// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/github"
	"github.com/codenoteai/codenote/pkg/pagination"
	"github.com/codenoteai/codenote/pkg/pointer"
)

// # Fakes

type fakeStore struct {
	records map[string]*Repository
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*Repository)}
}

func (store *fakeStore) Create(_ context.Context, repository *Repository) error {
	clone := *repository
	store.records[repository.ID] = &clone
	return nil
}

func (store *fakeStore) FindByID(_ context.Context, ownerID, id string) (*Repository, error) {
	if record, ok := store.records[id]; ok && record.OwnerID == ownerID {
		clone := *record
		return &clone, nil
	}
	return nil, apperr.NotFound("Repository")
}

func (store *fakeStore) ListByOwner(_ context.Context, ownerID string, _ pagination.Params) ([]*Repository, int, error) {
	var owned []*Repository
	for _, record := range store.records {
		if record.OwnerID == ownerID {
			clone := *record
			owned = append(owned, &clone)
		}
	}
	return owned, len(owned), nil
}

func (store *fakeStore) Update(_ context.Context, repository *Repository) error {
	clone := *repository
	store.records[repository.ID] = &clone
	return nil
}

func (store *fakeStore) SetLastAnalysis(_ context.Context, repositoryID, analysisID string) error {
	if record, ok := store.records[repositoryID]; ok {
		record.LastAnalysisID = analysisID
	}
	return nil
}

func (store *fakeStore) Delete(_ context.Context, ownerID, id string) error {
	if record, ok := store.records[id]; ok && record.OwnerID == ownerID {
		delete(store.records, id)
		return nil
	}
	return apperr.NotFound("Repository")
}

type fakeFetcher struct {
	metadata github.Repository
	err      error
}

func (fetcher *fakeFetcher) Repository(_ context.Context, _, _ string) (github.Repository, error) {
	return fetcher.metadata, fetcher.err
}

// # Tests

func TestSplitGitHubURL(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		wantOwner string
		wantName  string
		wantErr   bool
	}{
		{name: "plain", url: "https://github.com/octocat/hello-world", wantOwner: "octocat", wantName: "hello-world"},
		{name: "git suffix", url: "https://github.com/octocat/hello-world.git", wantOwner: "octocat", wantName: "hello-world"},
		{name: "trailing path", url: "https://github.com/octocat/hello-world/tree/main", wantOwner: "octocat", wantName: "hello-world"},
		{name: "no scheme", url: "github.com/octocat/hello-world", wantOwner: "octocat", wantName: "hello-world"},
		{name: "not github", url: "https://gitlab.com/octocat/hello-world", wantErr: true},
		{name: "missing name", url: "https://github.com/octocat", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			owner, name, err := SplitGitHubURL(testCase.url)

			if testCase.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.wantOwner, owner)
			assert.Equal(t, testCase.wantName, name)
		})
	}
}

func TestRegister_EnrichesFromGitHub(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, &fakeFetcher{metadata: github.Repository{
		FullName:      "octocat/hello-world",
		DefaultBranch: "trunk",
		Language:      "Go",
		Stars:         1200,
		Forks:         300,
	}})

	record, err := service.Register(context.Background(), "user-1", RegisterInput{
		URL: "https://github.com/octocat/hello-world",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", record.Name) // Falls back to the URL segment.
	assert.Equal(t, "trunk", record.DefaultBranch)
	assert.Equal(t, 1200, record.Stars)
	assert.Equal(t, "user-1", record.OwnerID)
	assert.Contains(t, store.records, record.ID)
}

func TestRegister_GitHubOutageDowngrades(t *testing.T) {
	service := NewService(newFakeStore(), &fakeFetcher{err: apperr.ServiceUnavailable("down")})

	record, err := service.Register(context.Background(), "user-1", RegisterInput{
		Name: "mine",
		URL:  "https://github.com/octocat/hello-world",
	})

	require.NoError(t, err)
	assert.Equal(t, "mine", record.Name)
	assert.Equal(t, "main", record.DefaultBranch) // Unenriched default.
	assert.Zero(t, record.Stars)
}

func TestRegister_GitHubMissingRejects(t *testing.T) {
	service := NewService(newFakeStore(), &fakeFetcher{err: apperr.NotFound("Repository")})

	_, err := service.Register(context.Background(), "user-1", RegisterInput{
		URL: "https://github.com/octocat/does-not-exist",
	})

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestRegister_NoFetcherConfigured(t *testing.T) {
	service := NewService(newFakeStore(), nil)

	record, err := service.Register(context.Background(), "user-1", RegisterInput{
		URL: "https://github.com/octocat/hello-world",
	})

	require.NoError(t, err)
	assert.Equal(t, "octocat/hello-world", record.FullName)
}

func TestUpdate_PartialFields(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	record, err := service.Register(context.Background(), "user-1", RegisterInput{
		Name:        "original",
		Description: "original description",
		URL:         "https://github.com/octocat/hello-world",
	})
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), "user-1", record.ID, UpdateInput{
		Description: pointer.To("new description"),
	})
	require.NoError(t, err)

	assert.Equal(t, "original", updated.Name)
	assert.Equal(t, "new description", updated.Description)
}

func TestOwnership_ForeignRepositoryReadsAsMissing(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, nil)

	record, err := service.Register(context.Background(), "user-1", RegisterInput{
		URL: "https://github.com/octocat/hello-world",
	})
	require.NoError(t, err)

	_, err = service.Get(context.Background(), "user-2", record.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	err = service.Delete(context.Background(), "user-2", record.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	var missing *apperr.AppError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, 404, missing.HTTPStatus)
}
