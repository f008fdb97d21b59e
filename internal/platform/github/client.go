// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package github wraps the GitHub REST API for the analysis pipeline.

It is the production implementation of the analysis collaborators: repository
metadata for registration, tree walks and file content for analysis runs, and
per-user aggregation for the contribution dashboard.

Core Responsibilities:

  - Authentication: Optional personal access token via oauth2; anonymous
    requests work against public repositories at reduced rate limits.
  - Selection: Tree walks keep only recognized source files under the size
    cap, so one analysis run stays a bounded amount of work.
  - Translation: API failures are mapped to the application error taxonomy
    so handlers never see transport-level error shapes.
*/
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/codenoteai/codenote/internal/platform/apperr"
)

// # Section: Selection Limits

// maxAnalyzedFiles caps how many source files a single analysis run inspects.
const maxAnalyzedFiles = 10

// maxFileSize skips generated bundles and vendored blobs (bytes).
const maxFileSize = 100 * 1024

// codeExtensions marks the file types the reviewer understands.
var codeExtensions = map[string]struct{}{
	".go": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
	".py": {}, ".rb": {}, ".java": {}, ".c": {}, ".cpp": {}, ".h": {},
	".cs": {}, ".php": {}, ".rs": {}, ".kt": {}, ".swift": {},
}

// # Section: Data Shapes

// Repository is the subset of GitHub repository metadata CodeNote keeps.
type Repository struct {
	Owner         string
	Name          string
	FullName      string
	Description   string
	URL           string
	DefaultBranch string
	Language      string
	Private       bool
	Stars         int
	Forks         int
	Watchers      int
	OpenIssues    int
	PushedAt      time.Time
}

// TreeFile is one analyzable source file in a repository tree.
type TreeFile struct {
	Path string
	Size int64
}

// RepositoryStat is the per-repository slice of a user's dashboard.
type RepositoryStat struct {
	Name     string
	Language string
	Stars    int
	Forks    int
	PushedAt time.Time
}

// UserStats aggregates a user's public footprint for the dashboard.
type UserStats struct {
	Login        string
	PublicRepos  int
	Followers    int
	TotalStars   int
	TotalForks   int
	Languages    map[string]int64
	Repositories []RepositoryStat
}

// # Section: Client

// Client is a thin authenticated wrapper over the go-github client.
type Client struct {
	api *gogithub.Client
}

/*
New creates a Client, authenticated when a token is supplied.

Parameters:
  - context: context.Context
  - token: string (personal access token; empty means anonymous)

Returns:
  - *Client: The wrapper
*/
func New(context context.Context, token string) *Client {
	if token == "" {
		return &Client{api: gogithub.NewClient(nil)}
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{api: gogithub.NewClient(oauth2.NewClient(context, source))}
}

/*
Repository fetches metadata for one repository.

Parameters:
  - context: context.Context
  - owner: string
  - name: string

Returns:
  - Repository: Normalized metadata
  - error: NOT_FOUND when the repository does not exist or is not visible
*/
func (client *Client) Repository(context context.Context, owner, name string) (Repository, error) {
	repository, response, err := client.api.Repositories.Get(context, owner, name)
	if err != nil {
		return Repository{}, translateError(response, err, "Repository")
	}

	return normalizeRepository(repository), nil
}

/*
ListCodeFiles walks the repository tree and returns analyzable source files.

Description: Uses a single recursive tree call against the branch head, then
filters by extension and size. The result is capped at maxAnalyzedFiles so
an analysis run on a large repository stays bounded.

Parameters:
  - context: context.Context
  - owner: string
  - name: string
  - branch: string (empty means the default branch)

Returns:
  - []TreeFile: Selected files, tree order
  - error: NOT_FOUND or transport failures
*/
func (client *Client) ListCodeFiles(context context.Context, owner, name, branch string) ([]TreeFile, error) {
	if branch == "" {
		repository, err := client.Repository(context, owner, name)
		if err != nil {
			return nil, err
		}
		branch = repository.DefaultBranch
	}

	tree, response, err := client.api.Git.GetTree(context, owner, name, branch, true)
	if err != nil {
		return nil, translateError(response, err, "Repository tree")
	}

	files := make([]TreeFile, 0, maxAnalyzedFiles)
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if !isCodeFile(entry.GetPath()) || int64(entry.GetSize()) > maxFileSize {
			continue
		}

		files = append(files, TreeFile{Path: entry.GetPath(), Size: int64(entry.GetSize())})
		if len(files) == maxAnalyzedFiles {
			break
		}
	}

	return files, nil
}

/*
FileContent downloads one file's decoded content.

Parameters:
  - context: context.Context
  - owner: string
  - name: string
  - path: string

Returns:
  - string: Decoded file content
  - error: NOT_FOUND or decode failures
*/
func (client *Client) FileContent(context context.Context, owner, name, path string) (string, error) {
	content, _, response, err := client.api.Repositories.GetContents(context, owner, name, path, nil)
	if err != nil {
		return "", translateError(response, err, "File")
	}
	if content == nil {
		return "", apperr.NotFound("File")
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("github_decode_content_failed: %w", err)
	}

	return decoded, nil
}

/*
UserStats aggregates a user's repositories into dashboard numbers.

Description: Lists the user's repositories (newest pushed first, one page of
up to 100) and folds star/fork counts and per-language byte totals, the
heavy-read path that sits behind the one-hour cache.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - UserStats: Aggregated footprint
  - error: USER_NOT_FOUND when the login does not exist
*/
func (client *Client) UserStats(context context.Context, username string) (UserStats, error) {
	user, response, err := client.api.Users.Get(context, username)
	if err != nil {
		if response != nil && response.StatusCode == http.StatusNotFound {
			return UserStats{}, apperr.UserNotFound()
		}
		return UserStats{}, translateError(response, err, "User")
	}

	repositories, response, err := client.api.Repositories.ListByUser(context, username, &gogithub.RepositoryListByUserOptions{
		Sort:        "pushed",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	})
	if err != nil {
		return UserStats{}, translateError(response, err, "User repositories")
	}

	stats := UserStats{
		Login:       user.GetLogin(),
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		Languages:   make(map[string]int64),
	}

	for _, repository := range repositories {
		stats.TotalStars += repository.GetStargazersCount()
		stats.TotalForks += repository.GetForksCount()
		stats.Repositories = append(stats.Repositories, RepositoryStat{
			Name:     repository.GetName(),
			Language: repository.GetLanguage(),
			Stars:    repository.GetStargazersCount(),
			Forks:    repository.GetForksCount(),
			PushedAt: repository.GetPushedAt().Time,
		})

		languages, _, err := client.api.Repositories.ListLanguages(context, username, repository.GetName())
		if err != nil {
			// Language breakdown is best-effort; keep the rest of the stats.
			continue
		}
		for language, bytes := range languages {
			stats.Languages[language] += int64(bytes)
		}
	}

	return stats, nil
}

// # Section: Helpers

// isCodeFile reports whether the path has a recognized source extension.
func isCodeFile(path string) bool {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return false
	}
	_, ok := codeExtensions[strings.ToLower(path[dot:])]
	return ok
}

// normalizeRepository flattens go-github's pointer-heavy shape.
func normalizeRepository(repository *gogithub.Repository) Repository {
	return Repository{
		Owner:         repository.GetOwner().GetLogin(),
		Name:          repository.GetName(),
		FullName:      repository.GetFullName(),
		Description:   repository.GetDescription(),
		URL:           repository.GetHTMLURL(),
		DefaultBranch: repository.GetDefaultBranch(),
		Language:      repository.GetLanguage(),
		Private:       repository.GetPrivate(),
		Stars:         repository.GetStargazersCount(),
		Forks:         repository.GetForksCount(),
		Watchers:      repository.GetSubscribersCount(),
		OpenIssues:    repository.GetOpenIssuesCount(),
		PushedAt:      repository.GetPushedAt().Time,
	}
}

// translateError maps GitHub API failures onto the application taxonomy.
func translateError(response *gogithub.Response, err error, resource string) error {
	if response != nil && response.StatusCode == http.StatusNotFound {
		return apperr.NotFound(resource)
	}

	var rateLimit *gogithub.RateLimitError
	if errors.As(err, &rateLimit) {
		retryAfter := int(time.Until(rateLimit.Rate.Reset.Time).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return apperr.RateLimited(retryAfter)
	}

	return apperr.ServiceUnavailable("GitHub API request failed")
}
