// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codenoteai/codenote/internal/platform/middleware"
	requestutil "github.com/codenoteai/codenote/internal/platform/request"
	"github.com/codenoteai/codenote/internal/platform/respond"
	"github.com/codenoteai/codenote/internal/platform/validate"
)

// Handler implements webhook management endpoints.
type Handler struct {
	webhookService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{webhookService: service}
}

// Routes returns a [chi.Router] configured with webhook routes.
//
// # Endpoints
//   - GET    /     : Lists the caller's webhooks.
//   - POST   /     : Registers a new webhook.
//   - GET    /{id} : Reads one webhook.
//   - DELETE /{id} : Removes a webhook.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Delete("/{id}", handler.remove)

	return router
}

type createRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

/*
List returns the caller's webhook registrations.

GET /api/v1/webhooks

Response:
  - 200: Webhook list, newest first
  - 401: MISSING_TOKEN: No valid session
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	hooks, err := handler.webhookService.List(request.Context(), ownerID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, hooks)
}

/*
Create registers a webhook for analysis lifecycle events.

POST /api/v1/webhooks

Request:
  - Body: createRequest (URL, Events)

Response:
  - 201: Webhook: Created registration including the signing secret
  - 400: VALIDATION_ERROR: Bad URL or unknown event names
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

	registration, err := handler.webhookService.Register(request.Context(), ownerID, RegisterInput{
		URL:    input.URL,
		Events: input.Events,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, registration)
}

/*
Get reads one webhook owned by the caller.

GET /api/v1/webhooks/{id}

Response:
  - 200: Webhook
  - 404: NOT_FOUND: Absent or owned by another user
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	registration, err := handler.webhookService.Get(request.Context(), ownerID, requestutil.ID(request, FieldID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, registration)
}

/*
Remove deletes a webhook.

DELETE /api/v1/webhooks/{id}

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

	if err := handler.webhookService.Delete(request.Context(), ownerID, requestutil.ID(request, FieldID)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
