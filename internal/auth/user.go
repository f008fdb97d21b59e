// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package auth implements the user identity and session lifecycle layer.

It defines the core domain entity (User) and the logic for registration,
credential verification, and the stateless token-pair session model.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
Sessions are not stored: possession of a valid refresh token IS the session.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered member of the CodeNote platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	GitHubLogin  string    `json:"github_login,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername      = "username"
	FieldEmail         = "email"
	FieldPassword      = "password"
	FieldDisplayName   = "display_name"
	FieldGitHubLogin   = "github_login"
	FieldUser          = "user"
	FieldMessage       = "message"
	FieldAuthenticated = "authenticated"
)
