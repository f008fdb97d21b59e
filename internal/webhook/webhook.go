// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Outbound webhooks for analysis lifecycle events.

Each webhook carries its own random signing secret; deliveries are signed
with HMAC-SHA256 so receivers can verify origin. Endpoints that keep
failing are deactivated rather than retried forever.
*/
package webhook

import "time"

// Events a webhook can subscribe to.
const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
	EventRepositoryUpdated = "repository.updated"
)

// KnownEvents lists every subscribable event name.
var KnownEvents = []string{
	EventAnalysisCompleted,
	EventAnalysisFailed,
	EventRepositoryUpdated,
}

// MaxConsecutiveFailures is the delivery failure streak that deactivates a hook.
const MaxConsecutiveFailures = 5

// Webhook is one registered delivery endpoint.
type Webhook struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	URL          string    `json:"url"`
	Events       []string  `json:"events"`
	Secret       string    `json:"secret"`
	Active       bool      `json:"active"`
	FailureCount int       `json:"failure_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subscribed reports whether the hook listens for the given event.
func (webhook *Webhook) Subscribed(event string) bool {
	for _, subscribed := range webhook.Events {
		if subscribed == event {
			return true
		}
	}
	return false
}

// Field name constants used in validation errors and route parameters.
const (
	FieldID     = "id"
	FieldURL    = "url"
	FieldEvents = "events"
)
