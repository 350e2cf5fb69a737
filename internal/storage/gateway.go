// Package storage defines the key/value gateway the ledger persists through.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Gateway is an asynchronous-friendly key/value store of opaque string values.
type Gateway interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Name identifies the backend in logs and metrics.
	Name() string

	// Close releases any resources held by the backend.
	Close() error
}

var (
	// ErrNotFound is returned when a requested key does not exist.
	ErrNotFound = errors.New("storage: key not found")

	// ErrInvalidKey is returned for empty, oversized or whitespace-bearing keys.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrUnavailable is returned when a backend cannot be reached or was closed.
	ErrUnavailable = errors.New("storage: backend unavailable")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("storage: operation timeout")

	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("storage: circuit breaker open")
)

const maxKeyLength = 250

// ValidateKey checks that key is non-empty, reasonably short and free of
// whitespace and control characters.
func ValidateKey(key string) error {
	if key == "" || len(key) > maxKeyLength {
		return ErrInvalidKey
	}
	for _, r := range key {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return ErrInvalidKey
		}
	}
	return nil
}

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// WrapError adds backend and operation context to err.
func WrapError(err error, backend, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("storage %s %s: %w", backend, op, err)
}

// ClassifyError returns a short label for err, used as a metrics dimension.
func ClassifyError(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_breaker_open"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNotFound):
		return "key_not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "connection", "connect", "dial"):
		return "connection"
	case containsAny(msg, "marshal", "unmarshal", "encode", "decode"):
		return "serialization"
	default:
		return "other"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
