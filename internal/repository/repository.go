// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package repository manages the catalog of GitHub repositories users register
for analysis.

A registered repository is CodeNote's anchor entity: analyses, file reviews,
and dashboard stats all hang off it. Registration optionally enriches the
record with live GitHub metadata (stars, forks, default branch).

# Ownership

Every repository belongs to exactly one user. All reads and writes are scoped
by owner; a repository that exists but belongs to someone else behaves as if
it did not exist.
*/
package repository

import "time"

// # Domain Entities

// Repository represents a GitHub repository registered for analysis.
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

// # Field Identifiers

// Global field names for validation in the repository domain.
const (
	FieldName        = "name"
	FieldURL         = "url"
	FieldDescription = "description"
	FieldID          = "id"
)
