// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package analysis implements the AI code-analysis engine.

It owns three entity families: repository-level analyses (asynchronous, run
through the job queue), single-file analyses (synchronous), and per-user
contribution dashboards aggregated from GitHub.

# Collaborators

The engine talks to the outside world through two narrow interfaces,
[SourceBrowser] and [CodeReviewer]. Production wiring binds them to the
GitHub and AI platform clients; tests substitute deterministic fakes.
*/
package analysis

import (
	"context"
	"time"

	"github.com/codenoteai/codenote/internal/platform/ai"
	"github.com/codenoteai/codenote/internal/platform/github"
)

// # Collaborator Contracts

// SourceBrowser reads repository structure and content from the hosting
// provider.
type SourceBrowser interface {
	Repository(context context.Context, owner, name string) (github.Repository, error)
	ListCodeFiles(context context.Context, owner, name, branch string) ([]github.TreeFile, error)
	FileContent(context context.Context, owner, name, path string) (string, error)
	UserStats(context context.Context, username string) (github.UserStats, error)
}

// CodeReviewer turns one source file into a structured insight.
type CodeReviewer interface {
	AnalyzeCode(context context.Context, filePath, content string) (ai.Insight, error)
}

// # Analysis Lifecycle

// Analysis status values. An analysis moves strictly
// pending -> running -> completed | failed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Analysis is one asynchronous review run over a whole repository.
type Analysis struct {
	ID               string     `json:"id"`
	RepositoryID     string     `json:"repository_id"`
	OwnerID          string     `json:"owner_id"`
	Status           string     `json:"status"`
	QualityScore     float64    `json:"quality_score"`
	SecurityScore    float64    `json:"security_score"`
	PerformanceScore float64    `json:"performance_score"`
	FilesAnalyzed    int        `json:"files_analyzed"`
	Issues           []string   `json:"issues,omitempty"`
	Suggestions      []string   `json:"suggestions,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FileAnalysis is one synchronous review of a single file.
type FileAnalysis struct {
	ID               string    `json:"id"`
	RepositoryID     string    `json:"repository_id"`
	OwnerID          string    `json:"owner_id"`
	FilePath         string    `json:"file_path"`
	QualityScore     float64   `json:"quality_score"`
	SecurityScore    float64   `json:"security_score"`
	PerformanceScore float64   `json:"performance_score"`
	Issues           []string  `json:"issues,omitempty"`
	Suggestions      []string  `json:"suggestions,omitempty"`
	Summary          string    `json:"summary,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// # Contribution Dashboard

// MonthlyContribution is one month of the dashboard's activity series.
type MonthlyContribution struct {
	Month   string `json:"month"` // "2026-08"
	Commits int    `json:"commits"`
}

// RepositoryActivity is the per-repository slice of the dashboard.
type RepositoryActivity struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
}

// UserAnalysis is a generated contribution dashboard for one user.
type UserAnalysis struct {
	ID           string                `json:"id"`
	OwnerID      string                `json:"owner_id"`
	GitHubLogin  string                `json:"github_login"`
	TotalRepos   int                   `json:"total_repos"`
	TotalStars   int                   `json:"total_stars"`
	TotalForks   int                   `json:"total_forks"`
	Followers    int                   `json:"followers"`
	Languages    map[string]int64      `json:"languages,omitempty"`
	Monthly      []MonthlyContribution `json:"monthly,omitempty"`
	Heatmap      []int                 `json:"heatmap,omitempty"` // 52 weekly buckets
	ImpactScore  float64               `json:"impact_score"`
	Repositories []RepositoryActivity  `json:"repositories,omitempty"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// # Field Identifiers

const (
	FieldID           = "id"
	FieldRepositoryID = "repository_id"
	FieldFilePath     = "file_path"
	FieldContent      = "content"
)
