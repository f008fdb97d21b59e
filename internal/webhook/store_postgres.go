// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

// PostgreSQL implementation of the webhook storage contract.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codenoteai/codenote/internal/platform/apperr"
)

// PostgresStore implements the Store interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const webhookColumns = `
	id, ownerid, url, events, secret, active, failurecount, createdat, updatedat`

// Create persists a new webhook registration into core.webhook.
func (store *PostgresStore) Create(context context.Context, webhook *Webhook) error {
	const query = `
		INSERT INTO core.webhook (
			id, ownerid, url, events, secret, active, failurecount, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	events, err := json.Marshal(webhook.Events)
	if err != nil {
		return fmt.Errorf("postgres_webhook_store_encode_failed: %w", err)
	}

	now := time.Now()
	if webhook.CreatedAt.IsZero() {
		webhook.CreatedAt = now
	}
	webhook.UpdatedAt = now

	_, err = store.pool.Exec(context, query,
		webhook.ID,
		webhook.OwnerID,
		webhook.URL,
		events,
		webhook.Secret,
		webhook.Active,
		webhook.FailureCount,
		webhook.CreatedAt,
		webhook.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_webhook_store_create_failed: %w", err)
	}
	return nil
}

// FindByID returns a webhook owned by the given user.
func (store *PostgresStore) FindByID(context context.Context, ownerID, id string) (*Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM core.webhook WHERE id = $1 AND ownerid = $2`

	webhook, err := scanWebhook(store.pool.QueryRow(context, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Webhook")
		}
		return nil, fmt.Errorf("postgres_webhook_store_find_failed: %w", err)
	}
	return webhook, nil
}

// ListByOwner returns all webhooks registered by a user, newest first.
func (store *PostgresStore) ListByOwner(context context.Context, ownerID string) ([]*Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM core.webhook WHERE ownerid = $1 ORDER BY createdat DESC`

	rows, err := store.pool.Query(context, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("postgres_webhook_store_list_failed: %w", err)
	}
	defer rows.Close()

	return collectWebhooks(rows)
}

// ListActive returns the owner's active webhooks subscribed to an event.
//
// Subscription matching uses the JSONB containment operator against the
// events column.
func (store *PostgresStore) ListActive(context context.Context, ownerID, event string) ([]*Webhook, error) {
	query := `SELECT ` + webhookColumns + `
		FROM core.webhook
		WHERE ownerid = $1 AND active = TRUE AND events @> $2
		ORDER BY createdat DESC`

	subscription, err := json.Marshal([]string{event})
	if err != nil {
		return nil, fmt.Errorf("postgres_webhook_store_encode_failed: %w", err)
	}

	rows, err := store.pool.Query(context, query, ownerID, subscription)
	if err != nil {
		return nil, fmt.Errorf("postgres_webhook_store_list_active_failed: %w", err)
	}
	defer rows.Close()

	return collectWebhooks(rows)
}

// Update persists delivery bookkeeping changes for an existing webhook.
func (store *PostgresStore) Update(context context.Context, webhook *Webhook) error {
	const query = `
		UPDATE core.webhook
		SET url = $2, events = $3, active = $4, failurecount = $5, updatedat = $6
		WHERE id = $1`

	events, err := json.Marshal(webhook.Events)
	if err != nil {
		return fmt.Errorf("postgres_webhook_store_encode_failed: %w", err)
	}

	webhook.UpdatedAt = time.Now()

	tag, err := store.pool.Exec(context, query,
		webhook.ID,
		webhook.URL,
		events,
		webhook.Active,
		webhook.FailureCount,
		webhook.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_webhook_store_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Webhook")
	}
	return nil
}

// Delete removes a webhook owned by the given user.
func (store *PostgresStore) Delete(context context.Context, ownerID, id string) error {
	const query = `DELETE FROM core.webhook WHERE id = $1 AND ownerid = $2`

	tag, err := store.pool.Exec(context, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("postgres_webhook_store_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Webhook")
	}
	return nil
}

// scanWebhook hydrates one row into a [Webhook].
func scanWebhook(row pgx.Row) (*Webhook, error) {
	var webhook Webhook
	var events []byte

	err := row.Scan(
		&webhook.ID,
		&webhook.OwnerID,
		&webhook.URL,
		&events,
		&webhook.Secret,
		&webhook.Active,
		&webhook.FailureCount,
		&webhook.CreatedAt,
		&webhook.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		if err := json.Unmarshal(events, &webhook.Events); err != nil {
			return nil, fmt.Errorf("postgres_webhook_store_decode_failed: %w", err)
		}
	}
	return &webhook, nil
}

func collectWebhooks(rows pgx.Rows) ([]*Webhook, error) {
	webhooks := make([]*Webhook, 0)
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_webhook_store_scan_failed: %w", err)
		}
		webhooks = append(webhooks, webhook)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_webhook_store_rows_failed: %w", err)
	}
	return webhooks, nil
}
