// Package listener provides a Postgres LISTEN/NOTIFY consumer for ingest
// events. It holds a dedicated pgx connection (not from the pool) listening
// on the `statlines_ingested` channel, so that every API instance drops its
// response cache when any process writes new StatLines.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	// Channel matches the channel the SQL store notifies after a batch.
	Channel          = "statlines_ingested"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// IngestEvent is the JSON payload from pg_notify('statlines_ingested', ...).
type IngestEvent struct {
	Inserted  int   `json:"inserted"`
	Timestamp int64 `json:"ts"`
}

// Handler is invoked once per received event.
type Handler func(ctx context.Context, event IngestEvent)

// Start opens a dedicated connection and listens on Channel. It reconnects
// automatically on connection loss. Blocks until ctx is cancelled. Intended
// to be called with `go`.
func Start(ctx context.Context, dbURL string, handle Handler, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, handle, logger)
		if ctx.Err() != nil {
			logger.Info("Ingest listener stopped (context cancelled)")
			return
		}

		logger.Error("Ingest listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, handle Handler, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Ingest listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		event, err := ParseEvent(notification.Payload)
		if err != nil {
			logger.Warn("Failed to parse ingest event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Info("Ingest event received",
			"inserted", event.Inserted,
			"pid", notification.PID,
			"lag", time.Since(time.Unix(event.Timestamp, 0)).Round(time.Second))

		handle(ctx, event)
	}
}

// ParseEvent decodes a notification payload.
func ParseEvent(payload string) (IngestEvent, error) {
	var event IngestEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, err
	}
	return event, nil
}
