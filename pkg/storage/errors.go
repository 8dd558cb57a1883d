package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("object not found")
	ErrNoContainer      = errors.New("container not found")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConnFailed       = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timeout")
	ErrInvalidKey       = errors.New("invalid object key")
	ErrLocalFileMissing = errors.New("local file not found")
)

// IsNotFound reports whether err means the addressed key is absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Classify tags err with a sentinel while keeping the original error in the chain
func Classify(sentinel, err error) error {
	if err == nil || errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// ContextError maps context cancellation and deadlines. It returns nil when
// err carries neither.
func ContextError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Classify(ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	return nil
}

// WrapError adds context to an error
func WrapError(backend, operation string, err error) error {
	return fmt.Errorf("%s (%s): %w", operation, backend, err)
}
