package storage

import (
	"context"
	"io"
	"strings"
	"time"
)

// Backend represents a driver for a remote key-object store. A Backend
// holds only immutable settings; all remote state lives in a Conn.
type Backend interface {
	// Type returns the backend type (s3, minio, backblaze, ssh, local)
	Type() string

	// Connect opens a scoped connection to the configured container.
	// The caller must Close it when the operation ends.
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a connection bound to a single operation. Methods return errors
// wrapping the sentinels in errors.go so callers never inspect
// backend-specific codes.
type Conn interface {
	// Put stores size bytes read from r under key, overwriting any existing object
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the full body of key to w
	Get(ctx context.Context, key string, w io.Writer) (int64, error)

	// Delete removes key. Stores that delete idempotently return nil for
	// absent keys; others return ErrNotFound.
	Delete(ctx context.Context, key string) error

	// List returns every key in the container, following pagination
	List(ctx context.Context) ([]string, error)

	// Head checks key, returning ErrNotFound when it is absent
	Head(ctx context.Context, key string) error

	// Close releases the connection (sockets, sessions)
	Close() error
}

// TempPrefix starts the name of every in-flight file written next to its
// destination (downloads, local puts)
const TempPrefix = ".objstore-tmp-"

// IsTempName reports whether name is an in-flight file
func IsTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

// Outcome is the result of an operation addressing an existing key
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeFound
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// UploadOutcome is the result of an upload
type UploadOutcome int

const (
	UploadFailed UploadOutcome = iota
	UploadCompleted
	UploadSkipped // local file missing, nothing transferred
)

func (o UploadOutcome) String() string {
	switch o {
	case UploadCompleted:
		return "completed"
	case UploadSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// TransferResult represents the outcome of one upload in a batch
type TransferResult struct {
	Path     string
	Key      string
	Outcome  UploadOutcome
	Error    error
	Duration time.Duration
}
