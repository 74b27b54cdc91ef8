package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{15, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "connection refused", err: errors.New("connection refused"), expected: true},
		{name: "closed connection", err: errors.New("connection closed"), expected: true},
		{name: "EOF", err: errors.New("unexpected EOF"), expected: true},
		{name: "broken pipe", err: errors.New("write: broken pipe"), expected: true},
		{name: "closed network connection", err: errors.New("use of closed network connection"), expected: true},
		{name: "message channel closed", err: errors.New("message channel closed"), expected: true},
		{name: "handler failure", err: errors.New("scan 42 not found"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestReceiptScanMessageRoundTrip(t *testing.T) {
	msg := NewReceiptScanMessage(42)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := ReceiptScanMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ReceiptScanMessageFromJSON() error = %v", err)
	}
	if got.ScanID != 42 {
		t.Errorf("ScanID = %d, want 42", got.ScanID)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp is zero, want publish time")
	}
}

func TestReceiptScanMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ReceiptScanMessageFromJSON([]byte("not json")); err == nil {
		t.Error("ReceiptScanMessageFromJSON() error = nil, want parse error")
	}
}
