// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package codenote

import "time"

// User is the authenticated account profile returned by the API.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	GitHubLogin string    `json:"github_login,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository is a GitHub repository registered for analysis.
type Repository struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	FullName       string    `json:"full_name,omitempty"`
	Description    string    `json:"description,omitempty"`
	URL            string    `json:"url"`
	DefaultBranch  string    `json:"default_branch"`
	Language       string    `json:"language,omitempty"`
	Private        bool      `json:"private"`
	Stars          int       `json:"stars"`
	Forks          int       `json:"forks"`
	Watchers       int       `json:"watchers"`
	OpenIssues     int       `json:"open_issues"`
	LastAnalysisID string    `json:"last_analysis_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Analysis is one asynchronous repository analysis run.
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

// MonthlyContribution is one month of the dashboard activity series.
type MonthlyContribution struct {
	Month   string `json:"month"`
	Commits int    `json:"commits"`
}

// RepositoryActivity is a dashboard row for one public repository.
type RepositoryActivity struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
}

// UserStats is the generated contribution dashboard.
type UserStats struct {
	ID           string                `json:"id"`
	OwnerID      string                `json:"owner_id"`
	GitHubLogin  string                `json:"github_login"`
	TotalRepos   int                   `json:"total_repos"`
	TotalStars   int                   `json:"total_stars"`
	TotalForks   int                   `json:"total_forks"`
	Followers    int                   `json:"followers"`
	Languages    map[string]int64      `json:"languages,omitempty"`
	Monthly      []MonthlyContribution `json:"monthly,omitempty"`
	Heatmap      []int                 `json:"heatmap,omitempty"`
	ImpactScore  float64               `json:"impact_score"`
	Repositories []RepositoryActivity  `json:"repositories,omitempty"`
	GeneratedAt  time.Time             `json:"generated_at"`
}
