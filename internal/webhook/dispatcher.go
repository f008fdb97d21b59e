// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/codenoteai/codenote/internal/platform/sec"
)

// deliveryTimeout bounds one outbound POST.
const deliveryTimeout = 10 * time.Second

// Delivery headers set on every outbound request.
const (
	HeaderSignature = "X-Hub-Signature"
	HeaderEventType = "X-Event-Type"
)

// envelope is the JSON body delivered to the receiver.
type envelope struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Dispatcher delivers events to an owner's active webhooks.
//
// Delivery is best effort: failures are logged and tracked per hook, and a
// hook is deactivated after [MaxConsecutiveFailures] delivery failures in a
// row. A successful delivery resets the streak.
type Dispatcher struct {
	store  Store
	client *http.Client
	logger *slog.Logger
}

// NewDispatcher constructs a new [Dispatcher] around the given store.
func NewDispatcher(store Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: deliveryTimeout},
		logger: logger,
	}
}

/*
Publish delivers an event payload to every subscribed active webhook.

Each delivery is a POST with an HMAC-SHA256 signature of the body in the
X-Hub-Signature header ("sha256=<hex>") keyed by the hook's secret, and the
event name in X-Event-Type. Any 2xx response counts as delivered.

Parameters:
  - context: context.Context
  - ownerID: string
  - event: string
  - payload: any
*/
func (dispatcher *Dispatcher) Publish(context context.Context, ownerID, event string, payload any) {
	hooks, err := dispatcher.store.ListActive(context, ownerID, event)
	if err != nil {
		dispatcher.logger.Error("webhook list failed", "event", event, "error", err)
		return
	}

	if len(hooks) == 0 {
		return
	}

	body, err := json.Marshal(envelope{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		dispatcher.logger.Error("webhook payload encoding failed", "event", event, "error", err)
		return
	}

	for _, hook := range hooks {
		dispatcher.deliver(context, hook, event, body)
	}
}

// deliver posts one signed payload and updates the hook's failure streak.
func (dispatcher *Dispatcher) deliver(context context.Context, hook *Webhook, event string, body []byte) {
	request, err := http.NewRequestWithContext(context, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		dispatcher.recordFailure(context, hook, event, err)
		return
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(HeaderEventType, event)
	request.Header.Set(HeaderSignature, "sha256="+sec.SignPayload(body, hook.Secret))

	response, err := dispatcher.client.Do(request)
	if err != nil {
		dispatcher.recordFailure(context, hook, event, err)
		return
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		dispatcher.recordFailure(context, hook, event, nil)
		dispatcher.logger.Warn("webhook delivery rejected",
			"webhook_id", hook.ID,
			"event", event,
			"status", response.StatusCode)
		return
	}

	if hook.FailureCount > 0 {
		hook.FailureCount = 0
		if err := dispatcher.store.Update(context, hook); err != nil {
			dispatcher.logger.Error("webhook streak reset failed", "webhook_id", hook.ID, "error", err)
		}
	}
}

// recordFailure bumps the failure streak and deactivates exhausted hooks.
func (dispatcher *Dispatcher) recordFailure(context context.Context, hook *Webhook, event string, cause error) {
	hook.FailureCount++
	if hook.FailureCount >= MaxConsecutiveFailures {
		hook.Active = false
		dispatcher.logger.Warn("webhook deactivated after repeated failures",
			"webhook_id", hook.ID,
			"failures", hook.FailureCount)
	}

	if cause != nil {
		dispatcher.logger.Warn("webhook delivery failed",
			"webhook_id", hook.ID,
			"event", event,
			"error", cause)
	}

	if err := dispatcher.store.Update(context, hook); err != nil {
		dispatcher.logger.Error("webhook bookkeeping failed", "webhook_id", hook.ID, "error", err)
	}
}
