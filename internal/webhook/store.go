// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package webhook

import "context"

// # Webhook Data Access

// Store defines the data access contract for webhook registrations.
type Store interface {

	/*
		Create persists a new webhook registration.

		Parameters:
		  - context: context.Context
		  - webhook: *Webhook

		Returns:
		  - error: Constraint violations or connectivity failures
	*/
	Create(context context.Context, webhook *Webhook) error

	/*
		FindByID returns a webhook owned by the given user.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - *Webhook: Hydrated entity
		  - error: apperr.NotFound when absent or owned by someone else
	*/
	FindByID(context context.Context, ownerID, id string) (*Webhook, error)

	/*
		ListByOwner returns all webhooks registered by a user, newest first.

		Parameters:
		  - context: context.Context
		  - ownerID: string

		Returns:
		  - []*Webhook: Registrations, possibly empty
		  - error: Connectivity failures
	*/
	ListByOwner(context context.Context, ownerID string) ([]*Webhook, error)

	/*
		ListActive returns the owner's active webhooks subscribed to an event.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - event: string

		Returns:
		  - []*Webhook: Delivery targets, possibly empty
		  - error: Connectivity failures
	*/
	ListActive(context context.Context, ownerID, event string) ([]*Webhook, error)

	/*
		Update persists delivery bookkeeping changes (failure count, active flag).

		Parameters:
		  - context: context.Context
		  - webhook: *Webhook

		Returns:
		  - error: apperr.NotFound when the row no longer exists
	*/
	Update(context context.Context, webhook *Webhook) error

	/*
		Delete removes a webhook owned by the given user.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - error: apperr.NotFound when absent or owned by someone else
	*/
	Delete(context context.Context, ownerID, id string) error
}
