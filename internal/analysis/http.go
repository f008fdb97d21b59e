// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
HTTP delivery layer for the analysis engine.

Repository runs are asynchronous: POST returns 202 with the pending record
and callers poll the analysis resource. File reviews and dashboard reads are
synchronous.
*/
package analysis

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codenoteai/codenote/internal/platform/middleware"
	requestutil "github.com/codenoteai/codenote/internal/platform/request"
	"github.com/codenoteai/codenote/internal/platform/respond"
	"github.com/codenoteai/codenote/internal/platform/validate"
)

// # Definitions & Constructors

// UserDirectory resolves a user's GitHub login when a stats request does not
// name one explicitly.
type UserDirectory interface {
	GitHubLogin(context context.Context, userID string) (string, error)
}

// Handler implements analysis-related HTTP endpoints.
type Handler struct {
	analysisService *Service
	directory       UserDirectory
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, directory UserDirectory) *Handler {
	return &Handler{analysisService: service, directory: directory}
}

// AnalysisRoutes returns the router for repository analysis reads.
//
// # Endpoints
//   - GET /{id} : Reads one analysis run (poll target for async runs).
func (handler *Handler) AnalysisRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/{id}", handler.getAnalysis)

	return router
}

// FileRoutes returns the router for synchronous file reviews.
//
// # Endpoints
//   - POST /analyze       : Reviews one pasted file immediately.
//   - GET  /analyses/{id} : Reads a stored file review.
func (handler *Handler) FileRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/analyze", handler.analyzeFile)
	router.Get("/analyses/{id}", handler.getFileAnalysis)

	return router
}

// StatsRoutes returns the router for the contribution dashboard.
//
// # Endpoints
//   - POST /generate : Rebuilds the caller's dashboard from GitHub.
//   - GET  /         : Reads the latest generated dashboard.
func (handler *Handler) StatsRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/generate", handler.generateStats)
	router.Get("/", handler.getStats)

	return router
}

// # Request Payloads

type analyzeFileRequest struct {
	RepositoryID string `json:"repository_id"`
	FilePath     string `json:"file_path"`
	Content      string `json:"content"`
}

type generateStatsRequest struct {
	GitHubLogin string `json:"github_login"`
}

/*
StartAnalysis kicks off an asynchronous repository analysis.

POST /api/v1/repositories/{id}/analyze

Description: Creates the pending record and enqueues the background run.
Mounted under the repositories subtree so the repository ID rides the path.

Response:
  - 202: Analysis: Pending record; poll GET /api/v1/analyses/{id}
  - 404: NOT_FOUND: Repository absent or owned by another user
  - 503: SERVICE_UNAVAILABLE: No GitHub integration configured
*/
func (handler *Handler) StartAnalysis(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	run, err := handler.analysisService.Start(request.Context(), ownerID, requestutil.ID(request, FieldID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, run)
}

/*
GetAnalysis reads one analysis run.

GET /api/v1/analyses/{id}

Response:
  - 200: Analysis: Current state, terminal or not
  - 404: NOT_FOUND: Absent or owned by another user
*/
func (handler *Handler) getAnalysis(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	run, err := handler.analysisService.Get(request.Context(), ownerID, requestutil.ID(request, FieldID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, run)
}

/*
AnalyzeFile reviews one file synchronously.

POST /api/v1/files/analyze

Request:
  - Body: analyzeFileRequest (RepositoryID, FilePath, Content)

Response:
  - 200: FileAnalysis: Persisted review
  - 400: VALIDATION_ERROR: Missing fields
  - 404: NOT_FOUND: Repository absent or owned by another user
*/
func (handler *Handler) analyzeFile(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input analyzeFileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldRepositoryID, input.RepositoryID).
		Required(FieldFilePath, input.FilePath).
		Required(FieldContent, input.Content)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.analysisService.AnalyzeFile(request.Context(), ownerID, FileInput{
		RepositoryID: input.RepositoryID,
		FilePath:     input.FilePath,
		Content:      input.Content,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, review)
}

/*
GetFileAnalysis reads a stored file review.

GET /api/v1/files/analyses/{id}

Response:
  - 200: FileAnalysis
  - 404: NOT_FOUND: Absent or owned by another user
*/
func (handler *Handler) getFileAnalysis(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.analysisService.GetFile(request.Context(), ownerID, requestutil.ID(request, FieldID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, review)
}

/*
GenerateStats rebuilds the caller's contribution dashboard.

POST /api/v1/stats/generate

Request:
  - Body: generateStatsRequest (GitHubLogin; optional when the profile
    already carries one)

Response:
  - 200: UserAnalysis: Freshly generated dashboard
  - 400: VALIDATION_ERROR: No GitHub login available
  - 401: USER_NOT_FOUND: GitHub rejects the login
*/
func (handler *Handler) generateStats(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The body is optional; an absent login falls back to the profile.
	var input generateStatsRequest
	_ = requestutil.DecodeJSON(request, &input)

	githubLogin := input.GitHubLogin
	if githubLogin == "" && handler.directory != nil {
		if profileLogin, dirErr := handler.directory.GitHubLogin(request.Context(), ownerID); dirErr == nil {
			githubLogin = profileLogin
		}
	}

	dashboard, err := handler.analysisService.GenerateUserStats(request.Context(), ownerID, githubLogin)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, dashboard)
}

/*
GetStats reads the caller's latest dashboard.

GET /api/v1/stats

Response:
  - 200: UserAnalysis
  - 404: NOT_FOUND: Never generated
*/
func (handler *Handler) getStats(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	dashboard, err := handler.analysisService.GetUserStats(request.Context(), ownerID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, dashboard)
}
