// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package middleware

import (
	"errors"
	"net/http"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/constants"
	"github.com/codenoteai/codenote/internal/platform/ctxutil"
	"github.com/codenoteai/codenote/internal/platform/respond"
	"github.com/codenoteai/codenote/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the concrete
// [sec.TokenService], allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyAccess(tokenString string) (string, error)
}

// Authenticate extracts and verifies the access token from the session cookie.
//
// # Flow
//  1. Check for the 'accessToken' httpOnly cookie.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// Verification failures abort with the typed 401 taxonomy (EXPIRED_TOKEN,
// INVALID_TOKEN) so the client SDK can decide whether a refresh is worthwhile.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Anonymous Access ───────────────────────────────────────────
			cookie, err := request.Cookie(constants.AccessTokenCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			subjectID, err := verifier.VerifyAccess(cookie.Value)
			if err != nil {
				respond.Error(writer, request, TokenError(err))
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: subjectID})
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context.
//  2. If missing, abort with HTTP 401 MISSING_TOKEN.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.MissingToken("Not authorized: no token provided"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// TokenError maps [sec] verification failures onto the API error taxonomy.
//
// Shared by this middleware and the auth handlers so that the session and
// refresh endpoints report identical codes for identical failures.
func TokenError(err error) *apperr.AppError {
	switch {
	case errors.Is(err, sec.ErrTokenExpired):
		return apperr.ExpiredToken("Not authorized: token expired")
	case errors.Is(err, sec.ErrTokenInvalid):
		return apperr.InvalidToken("Not authorized: invalid token")
	default:
		return apperr.Unauthorized("Not authorized")
	}
}
