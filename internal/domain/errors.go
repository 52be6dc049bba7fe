package domain

import (
	"fmt"
	"time"
)

// AuthenticationError means the portal rejected the credentials or the SSO
// flow ended somewhere unexpected. Never retried.
type AuthenticationError struct {
	URL    string // where the browser ended up
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return fmt.Sprintf("authentication failed: %s (landed on %s)", e.Reason, e.URL)
}

// ExtractionTimeoutError means the activity table did not show up in time.
type ExtractionTimeoutError struct {
	Selector string
	Waited   time.Duration
	Err      error
}

func (e *ExtractionTimeoutError) Error() string {
	return fmt.Sprintf("activity table %q did not appear within %s: %v", e.Selector, e.Waited, e.Err)
}

func (e *ExtractionTimeoutError) Unwrap() error { return e.Err }

// SnapshotCorruptError means a snapshot exists but cannot be decoded.
// It must never be treated as an empty snapshot.
type SnapshotCorruptError struct {
	Location string
	Err      error
}

func (e *SnapshotCorruptError) Error() string {
	return fmt.Sprintf("snapshot at %s is corrupt: %v", e.Location, e.Err)
}

func (e *SnapshotCorruptError) Unwrap() error { return e.Err }

// DeliveryError wraps a failed notification send.
type DeliveryError struct {
	Destination string
	Chunk       int // 1-based, 0 when not chunked
	Err         error
}

func (e *DeliveryError) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("delivery to %s failed at chunk %d: %v", e.Destination, e.Chunk, e.Err)
	}
	return fmt.Sprintf("delivery to %s failed: %v", e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// DispatchError is returned by the CI trigger. StatusCode is the HTTP status
// of the dispatch call, or 0 when no response was received.
type DispatchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch failed (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("dispatch failed (status %d): %s", e.StatusCode, e.Message)
}

func (e *DispatchError) Unwrap() error { return e.Err }
