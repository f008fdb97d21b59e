// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
HTTP delivery layer for user identity management.

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Both tokens travel as httpOnly cookies; bodies never carry them.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes,
headers, cookies, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/constants"
	"github.com/codenoteai/codenote/internal/platform/middleware"
	requestutil "github.com/codenoteai/codenote/internal/platform/request"
	"github.com/codenoteai/codenote/internal/platform/respond"
	"github.com/codenoteai/codenote/internal/platform/sec"
	"github.com/codenoteai/codenote/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the user lifecycle entry points (Registration, Login)
// and the cookie-based session machinery (Refresh, Session, Logout).
type Handler struct {
	authService   *Service
	secureCookies bool
}

// NewHandler constructs a new [Handler] with its service dependency.
//
// secureCookies controls the Secure attribute on session cookies; it is off
// in development so plain-HTTP local setups keep working.
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{authService: service, secureCookies: secureCookies}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account and starts a session.
//   - POST /login    : Authenticates and sets the session cookie pair.
//   - POST /refresh  : Rotates the pair using the refresh cookie.
//   - POST /logout   : Clears both cookies.
//   - GET  /session  : Returns the authenticated user's profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/session", handler.session)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	GitHubLogin string `json:"github_login"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, checks for identity conflicts, persists the new
profile, and sets the session cookie pair so registration doubles as login.

Request:
  - Body: registerRequest (Username, Email, Password, DisplayName, GitHubLogin)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		GitHubLogin: input.GitHubLogin,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session.Tokens)
	respond.Created(writer, map[string]any{FieldUser: session.User})
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials and injects the access/refresh cookie pair
into the response. Tokens never appear in the body.

Request:
  - Body: loginRequest (Email or Username, Password)

Response:
  - 200: User profile
  - 401: INVALID_CREDENTIAL: Unknown identity or wrong password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	// Either identity field works; email wins when both are present.
	identity := input.Email
	if identity == "" {
		identity = input.Username
	}

	if identity == "" {
		respond.Error(writer, request, validate.RequiredError(FieldEmail, "Email or username is required"))
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Login:    identity,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session.Tokens)
	respond.OK(writer, map[string]any{FieldUser: session.User})
}

/*
Refresh rotates the session using the refresh token cookie.

POST /api/v1/auth/refresh

Description: Validates the refresh cookie against the refresh secret and
re-issues BOTH cookies. The absence of the cookie is its own error code so
clients can tell "never logged in" from "session went bad".

Response:
  - 200: User profile with rotated cookies
  - 401: MISSING_TOKEN / EXPIRED_TOKEN / INVALID_TOKEN / USER_NOT_FOUND
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.MissingToken("Missing refresh token cookie"))
		return
	}

	session, err := handler.authService.RotateSession(request.Context(), cookie.Value)
	if err != nil {
		// A dead session's cookies are useless; clear them alongside the error.
		handler.clearSessionCookies(writer)
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session.Tokens)
	respond.OK(writer, map[string]any{FieldUser: session.User})
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: With stateless tokens there is nothing to revoke server-side;
logout clears both cookies symmetrically. Idempotent: logging out twice is
not an error.

Response:
  - 200: Confirmation message
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.clearSessionCookies(writer)
	respond.OK(writer, map[string]string{FieldMessage: "Logged out successfully"})
}

/*
Session returns the authenticated user's profile.

GET /api/v1/auth/session

Description: The bootstrap check clients call on startup to learn whether
their cookies still identify a user.

Response:
  - 200: User profile with authenticated flag
  - 401: MISSING_TOKEN / EXPIRED_TOKEN / INVALID_TOKEN
  - 401: USER_NOT_FOUND: Token is valid but the account is gone
*/
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.CurrentUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldUser:          user,
		FieldAuthenticated: true,
	})
}

// # Cookie Machinery

/*
setSessionCookies writes the access/refresh pair with their scoped paths.

Description: The access cookie rides on every request; the refresh cookie is
scoped to the auth endpoints so it is only ever transmitted during rotation.
Secure deployments serve the browser frontend from a different origin, so
cookies switch to SameSite=None there; SameSite=None requires Secure, which
is why the two attributes move together.
*/
func (handler *Handler) setSessionCookies(writer http.ResponseWriter, tokens sec.TokenPair) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    tokens.AccessToken,
		Path:     constants.AccessTokenCookiePath,
		Expires:  time.Now().Add(handler.authService.tokenService.AccessTTL()),
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: handler.cookieSameSite(),
	})

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    tokens.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  time.Now().Add(handler.authService.tokenService.RefreshTTL()),
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: handler.cookieSameSite(),
	})
}

// clearSessionCookies expires both cookies with attributes matching the
// setters exactly; a path mismatch would leave an orphaned cookie behind.
func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    "",
		Path:     constants.AccessTokenCookiePath,
		MaxAge:   -1,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: handler.cookieSameSite(),
	})

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: handler.cookieSameSite(),
	})
}

func (handler *Handler) cookieSameSite() http.SameSite {
	if handler.secureCookies {
		return http.SameSiteNoneMode
	}

	return http.SameSiteLaxMode
}
