// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package webhook

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/codenoteai/codenote/internal/platform/apperr"
	"github.com/codenoteai/codenote/internal/platform/sec"
	"github.com/codenoteai/codenote/internal/platform/validate"
	"github.com/codenoteai/codenote/pkg/uuidv7"
)

// secretByteLength sizes the per-hook signing secret.
const secretByteLength = 32

// Service manages webhook registrations.
type Service struct {
	store Store
}

// NewService constructs a new [Service] with its storage dependency.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterInput carries the caller-supplied fields for a new webhook.
type RegisterInput struct {
	URL    string
	Events []string
}

/*
Register creates a webhook with a freshly generated signing secret.

The secret is returned exactly once here; receivers should store it and use
it to verify the X-Hub-Signature header on deliveries.

Parameters:
  - context: context.Context
  - ownerID: string
  - input: RegisterInput

Returns:
  - *Webhook: Created registration, secret included
  - error: apperr.ValidationError for a bad URL or unknown event names
*/
func (service *Service) Register(context context.Context, ownerID string, input RegisterInput) (*Webhook, error) {
	if err := validateTargetURL(input.URL); err != nil {
		return nil, err
	}
	if len(input.Events) == 0 {
		return nil, validate.RequiredError(FieldEvents, "At least one event is required")
	}
	for _, event := range input.Events {
		if !knownEvent(event) {
			return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
				Field:   FieldEvents,
				Message: fmt.Sprintf("Unknown event %q", event),
			})
		}
	}

	secret, err := sec.GenerateSecureToken(secretByteLength)
	if err != nil {
		return nil, fmt.Errorf("webhook_service_secret_failed: %w", err)
	}

	now := time.Now()
	registration := &Webhook{
		ID:        uuidv7.New(),
		OwnerID:   ownerID,
		URL:       input.URL,
		Events:    input.Events,
		Secret:    secret,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := service.store.Create(context, registration); err != nil {
		return nil, err
	}
	return registration, nil
}

// List returns the caller's webhook registrations.
func (service *Service) List(context context.Context, ownerID string) ([]*Webhook, error) {
	return service.store.ListByOwner(context, ownerID)
}

// Get reads one webhook owned by the caller.
func (service *Service) Get(context context.Context, ownerID, id string) (*Webhook, error) {
	return service.store.FindByID(context, ownerID, id)
}

// Delete removes a webhook owned by the caller.
func (service *Service) Delete(context context.Context, ownerID, id string) error {
	return service.store.Delete(context, ownerID, id)
}

// validateTargetURL accepts absolute http/https URLs only.
func validateTargetURL(raw string) error {
	if raw == "" {
		return validate.RequiredError(FieldURL, "URL is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return validate.RequiredError(FieldURL, "URL must be absolute http or https")
	}
	return nil
}

func knownEvent(event string) bool {
	for _, known := range KnownEvents {
		if known == event {
			return true
		}
	}
	return false
}
