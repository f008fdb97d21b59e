// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces defined at the point of use.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/codenoteai/codenote/pkg/uuidv7"
)

// Token verification failures. Handlers translate these into the API error
// taxonomy; do not leak them to clients as-is.
var (
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid indicates a malformed token, a bad signature, or a
	// token presented to the wrong verifier (access vs refresh).
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// Token use classes embedded in the 'use' claim.
//
// The access and refresh secrets already make cross-acceptance impossible,
// but the claim closes the hole where both secrets are accidentally
// configured to the same value.
const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// AuthClaims represents the payload embedded inside a session JWT.
//
// # Why custom claims?
//
// By embedding the UserID directly inside the JWT, [middleware.Authenticate]
// can identify the caller WITHOUT querying the database on every single API
// request. The user row is only resolved where the full profile is needed.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID   string `json:"id"`
	TokenUse string `json:"use"`
}

// TokenPair is a freshly issued access/refresh token couple.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService signs and verifies the two session token classes using HS256
// with two distinct secrets and two distinct lifetimes.
//
// # Statelessness
//
// Tokens are never persisted. Validity is purely a function of signature and
// expiry at verification time. There is no revocation list; a leaked refresh
// token stays usable until it expires. This is a documented limitation of the
// design, not an oversight.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewTokenService creates a TokenService from the two signing secrets.
//
// The secrets MUST differ: a refresh token must never verify as an access
// token or vice versa.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("sec: both signing secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("sec: access and refresh secrets must be distinct")
	}

	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
		now:           time.Now,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

/*
IssueSessionTokens produces a freshly signed access/refresh pair for a subject.

Description: Both tokens carry the same subject but are signed with distinct
secrets and expire independently (minutes vs days).

Parameters:
  - subjectID: The user ID the tokens authenticate.

Returns:
  - TokenPair: Signed access and refresh tokens
  - error: Signing failures
*/
func (service *TokenService) IssueSessionTokens(subjectID string) (TokenPair, error) {
	accessToken, err := service.sign(subjectID, tokenUseAccess, service.accessSecret, service.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	refreshToken, err := service.sign(subjectID, tokenUseRefresh, service.refreshSecret, service.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

/*
VerifyAccess checks an access token and resolves its subject.

Returns:
  - string: Subject user ID
  - error: ErrTokenExpired or ErrTokenInvalid
*/
func (service *TokenService) VerifyAccess(tokenString string) (string, error) {
	return service.verify(tokenString, tokenUseAccess, service.accessSecret)
}

/*
VerifyRefresh checks a refresh token and resolves its subject.

Returns:
  - string: Subject user ID
  - error: ErrTokenExpired or ErrTokenInvalid
*/
func (service *TokenService) VerifyRefresh(tokenString string) (string, error) {
	return service.verify(tokenString, tokenUseRefresh, service.refreshSecret)
}

// sign builds and signs a single token for the given use class.
//
// The jti makes every issued token unique even when two rotations land in
// the same second; without it a rotated pair could equal its predecessor.
func (service *TokenService) sign(subjectID, use string, secret []byte, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuidv7.New(),
			Subject:   subjectID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:   subjectID,
		TokenUse: use,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// verify parses the token with the given secret and checks the use claim.
func (service *TokenService) verify(tokenString, wantUse string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	if claims.TokenUse != wantUse {
		return "", ErrTokenInvalid
	}

	return claims.UserID, nil
}
