package amqp

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const maxBackoff = 30 * time.Second

func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Duration(1<<attempt) * time.Second
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// isConnectionError reports whether the error looks like a lost broker
// connection rather than a handler failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{
		"connection refused",
		"connection closed",
		"connection reset",
		"channel closed",
		"message channel closed",
		"broken pipe",
		"EOF",
		"use of closed network connection",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// ConsumeWithReconnect keeps a consumer alive across broker restarts. Each
// lost connection is redialed with exponential backoff; the attempt counter
// resets once a connection sticks.
func ConsumeWithReconnect(ctx context.Context, url, exchangeName, queueName string, handler func(*ReceiptScanMessage) error) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		client, err := NewClient(url, exchangeName, queueName)
		if err != nil {
			wait := exponentialBackoff(attempt)
			attempt++
			slog.WarnContext(ctx, "AMQP dial failed, retrying",
				"error", err,
				"wait", wait,
				"attempt", attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		attempt = 0

		err = client.ConsumeReceiptScans(ctx, handler)
		client.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP consumer stopped, reconnecting",
			"error", err,
			"wait", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
