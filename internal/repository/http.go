// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
HTTP delivery layer for repository registration.

All endpoints require an authenticated caller; ownership scoping happens in
the service/store, so a foreign repository ID reads as 404.
*/
package repository

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codenoteai/codenote/internal/platform/middleware"
	requestutil "github.com/codenoteai/codenote/internal/platform/request"
	"github.com/codenoteai/codenote/internal/platform/respond"
	"github.com/codenoteai/codenote/internal/platform/validate"
	"github.com/codenoteai/codenote/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements repository-related HTTP endpoints.
type Handler struct {
	repositoryService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{repositoryService: service}
}

// Routes returns a [chi.Router] configured with repository routes.
//
// # Endpoints
//   - GET    /     : Lists the caller's repositories (paginated).
//   - POST   /     : Registers a new repository.
//   - GET    /{id} : Reads one repository.
//   - PUT    /{id} : Updates name/description.
//   - DELETE /{id} : Unregisters a repository.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.remove)

	return router
}

// # Request Payloads

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

/*
List returns the caller's registered repositories.

GET /api/v1/repositories

Response:
  - 200: Paginated repository list, newest first
  - 401: MISSING_TOKEN: No valid session
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	repositories, total, err := handler.repositoryService.List(request.Context(), ownerID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, repositories, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Create registers a new repository for analysis.

POST /api/v1/repositories

Request:
  - Body: createRequest (Name, Description, URL)

Response:
  - 201: Repository: Created record, possibly enriched from GitHub
  - 400: VALIDATION_ERROR: Missing or non-GitHub URL
  - 404: NOT_FOUND: GitHub positively reports the repository missing
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldURL, input.URL).
		MaxLen(FieldName, input.Name, 200).
		MaxLen(FieldDescription, input.Description, 2000)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	repository, err := handler.repositoryService.Register(request.Context(), ownerID, RegisterInput{
		Name:        input.Name,
		Description: input.Description,
		URL:         input.URL,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, repository)
}

/*
Get reads one repository owned by the caller.

GET /api/v1/repositories/{id}

Response:
  - 200: Repository
  - 404: NOT_FOUND: Absent or owned by another user
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	repository, err := handler.repositoryService.Get(request.Context(), ownerID, requestutil.ID(request, FieldID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, repository)
}

/*
Update applies partial changes to a repository.

PUT /api/v1/repositories/{id}

Request:
  - Body: updateRequest (Name, Description; omitted fields keep their value)

Response:
  - 200: Repository: Updated record
  - 404: NOT_FOUND: Absent or owned by another user
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	repository, err := handler.repositoryService.Update(request.Context(), ownerID, requestutil.ID(request, FieldID), UpdateInput{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, repository)
}

/*
Remove unregisters a repository.

DELETE /api/v1/repositories/{id}

Response:
  - 204: No Content
  - 404: NOT_FOUND: Absent or owned by another user
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.repositoryService.Delete(request.Context(), ownerID, requestutil.ID(request, FieldID)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
