// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package auth implements the core identity and access management system.

It handles user registration, secure password hashing, and the stateless
session lifecycle built on a dual-secret access/refresh token pair.

Architecture:

  - Service: Orchestrates business logic (Register, Login, RotateSession).
  - Repository: Abstracted interface for Postgres (Users).
  - Security: Bcrypt password hashing and HS256-signed JWT pairs.

Sessions carry no server-side state: the refresh token itself is the proof of
session, so rotation needs no storage round-trip beyond the user lookup.
*/
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/sec"
	"github.com/codenoteai/codenote/pkg/uuidv7"
)

// # Service Definition

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or token rotation logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenService   *sec.TokenService
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepository UserRepository, tokenService *sec.TokenService) *Service {
	return &Service{
		userRepository: userRepository,
		tokenService:   tokenService,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	GitHubLogin string
}

// LoginSession couples a user with the freshly issued token pair.
type LoginSession struct {
	Tokens sec.TokenPair
	User   *User
}

/*
Register validates, hashes, and persists a brand new user account, then
issues a session so registration doubles as first login.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *LoginSession: Created user plus the initial token pair
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*LoginSession, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict err.
	_, err = service.userRepository.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		GitHubLogin:  input.GitHubLogin,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	tokens, err := service.tokenService.IssueSessionTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_token_failed: %w", err)
	}

	return &LoginSession{Tokens: tokens, User: user}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login    string // Can be Username or Email
	Password string
}

/*
Login validates user credentials and issues a fresh token pair.

Description: Verifies identity with constant-time password comparison, then
signs an access/refresh pair for cookie transport.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session credentials
  - error: InvalidCredential or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	var user *User
	var err error
	// Flexible login: look up by Email or Username
	user, err = service.userRepository.FindByEmail(context, input.Login)
	if err != nil {
		user, err = service.userRepository.FindByUsername(context, input.Login)
	}

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.InvalidCredential("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.InvalidCredential("Invalid login credentials")
	}

	tokens, err := service.tokenService.IssueSessionTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &LoginSession{Tokens: tokens, User: user}, nil
}

// # Session Management

/*
RotateSession implements refresh token rotation over stateless tokens.

Description: Verifies the presented refresh token against the refresh secret,
confirms the subject account still exists, and signs a brand-new pair. The
old pair is not tracked; it simply ages out at its original expiry.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *LoginSession: New session credentials
  - error: ExpiredToken, InvalidToken, UserNotFound, or signing failures
*/
func (service *Service) RotateSession(context context.Context, refreshToken string) (*LoginSession, error) {
	userID, err := service.tokenService.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, translateTokenError(err)
	}

	// Subject check: a deleted account must not be able to mint new sessions.
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, apperr.UserNotFound()
	}

	tokens, err := service.tokenService.IssueSessionTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_rotate_token_failed: %w", err)
	}

	return &LoginSession{Tokens: tokens, User: user}, nil
}

/*
CurrentUser resolves the authenticated subject into a full profile.

Parameters:
  - context: context.Context
  - userID: string (subject of a verified access token)

Returns:
  - *User: Hydrated account entity
  - error: UserNotFound when the account no longer exists
*/
func (service *Service) CurrentUser(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, apperr.UserNotFound()
	}
	return user, nil
}

// translateTokenError maps signature-level failures onto the auth taxonomy.
func translateTokenError(err error) *apperr.AppError {
	switch {
	case errors.Is(err, sec.ErrTokenExpired):
		return apperr.ExpiredToken("Refresh token has expired")
	default:
		return apperr.InvalidToken("Refresh token is invalid")
	}
}
