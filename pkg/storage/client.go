package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/williamokano/objstore/pkg/config"
)

// Client performs object operations against a single container. It holds
// only immutable state and is safe for concurrent use; every operation
// opens its own connection and releases it before returning.
type Client struct {
	cfg     config.ClientConfig
	backend Backend
	logger  zerolog.Logger
}

// New validates cfg and builds the configured backend. No network I/O is
// performed; invalid settings yield a *config.ConfigError.
func New(cfg config.ClientConfig, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, backend: backend, logger: logger}, nil
}

// NewWithBackend validates cfg and uses backend instead of the registry
func NewWithBackend(cfg config.ClientConfig, backend Backend, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, errors.New("backend is required")
	}

	return &Client{cfg: cfg, backend: backend, logger: logger}, nil
}

// Container returns the configured container name
func (c *Client) Container() string { return c.cfg.Container }

// Type returns the backend type
func (c *Client) Type() string { return c.backend.Type() }

// Upload stores the local file under its base name, overwriting any
// existing object. A missing local file is logged and, depending on the
// missing file policy, either skipped silently or reported as
// ErrLocalFileMissing; no connection is opened in that case.
func (c *Client) Upload(ctx context.Context, localPath string) (UploadOutcome, error) {
	key := filepath.Base(localPath)
	log := c.opLogger("upload", key).With().Str("path", localPath).Logger()

	file, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error().Str("policy", c.cfg.GetMissingFilePolicy()).Msg("file not found locally")
			if c.cfg.GetMissingFilePolicy() == config.MissingFileFail {
				return UploadSkipped, c.wrap("upload", fmt.Errorf("%w: %s", ErrLocalFileMissing, localPath))
			}
			return UploadSkipped, nil
		}
		log.Error().Err(err).Msg("failed to open local file")
		return UploadFailed, c.wrap("upload", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		log.Error().Err(err).Msg("failed to stat local file")
		return UploadFailed, c.wrap("upload", err)
	}
	if info.IsDir() {
		err := fmt.Errorf("%s is a directory", localPath)
		log.Error().Err(err).Msg("cannot upload directory")
		return UploadFailed, c.wrap("upload", err)
	}

	log.Info().Str("size", units.HumanSize(float64(info.Size()))).Msg("uploading file")
	start := time.Now()

	err = c.withConn(ctx, log, func(conn Conn) error {
		return conn.Put(ctx, key, file, info.Size())
	})
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("upload failed")
		return UploadFailed, c.wrap("upload", err)
	}

	log.Info().Dur("duration", time.Since(start)).Msg("file uploaded")
	return UploadCompleted, nil
}

// Download writes the full body of key to localPath, overwriting it. The
// body goes to a temporary file in the same directory first, so a failed
// download leaves an existing localPath untouched. An absent key yields
// OutcomeNotFound together with an error wrapping ErrNotFound.
func (c *Client) Download(ctx context.Context, key, localPath string) (Outcome, error) {
	log := c.opLogger("download", key).With().Str("path", localPath).Logger()

	if key == "" {
		return OutcomeFailed, c.wrap("download", ErrInvalidKey)
	}

	log.Info().Msg("downloading object")
	start := time.Now()

	tmp, err := os.CreateTemp(filepath.Dir(localPath), TempPrefix+"*")
	if err != nil {
		log.Error().Err(err).Msg("failed to create local file")
		return OutcomeFailed, c.wrap("download", err)
	}
	tmpPath := tmp.Name()
	done := false
	defer func() {
		if !done {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	var written int64
	err = c.withConn(ctx, log, func(conn Conn) error {
		n, err := conn.Get(ctx, key, tmp)
		written = n
		return err
	})
	if err != nil {
		if IsNotFound(err) {
			log.Error().Err(err).Msg("object not found")
			return OutcomeNotFound, c.wrap("download", err)
		}
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("download failed")
		return OutcomeFailed, c.wrap("download", err)
	}

	if err := tmp.Chmod(0644); err != nil {
		return OutcomeFailed, c.wrap("download", err)
	}
	if err := tmp.Close(); err != nil {
		log.Error().Err(err).Msg("failed to write local file")
		return OutcomeFailed, c.wrap("download", err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		done = true
		log.Error().Err(err).Msg("failed to replace local file")
		return OutcomeFailed, c.wrap("download", err)
	}
	done = true

	log.Info().
		Str("size", units.HumanSize(float64(written))).
		Dur("duration", time.Since(start)).
		Msg("object downloaded")
	return OutcomeFound, nil
}

// Remove deletes key. An absent key is not an error: it yields
// OutcomeNotFound when the backend reports it, OutcomeFound otherwise.
func (c *Client) Remove(ctx context.Context, key string) (Outcome, error) {
	log := c.opLogger("remove", key)

	if key == "" {
		return OutcomeFailed, c.wrap("remove", ErrInvalidKey)
	}

	log.Info().Msg("removing object")

	err := c.withConn(ctx, log, func(conn Conn) error {
		return conn.Delete(ctx, key)
	})
	if err != nil {
		if IsNotFound(err) {
			log.Info().Msg("object already absent")
			return OutcomeNotFound, nil
		}
		log.Error().Err(err).Msg("remove failed")
		return OutcomeFailed, c.wrap("remove", err)
	}

	log.Info().Msg("object removed")
	return OutcomeFound, nil
}

// List returns every key in the container in backend order
func (c *Client) List(ctx context.Context) ([]string, error) {
	log := c.opLogger("list", "")
	log.Debug().Msg("listing objects")

	var keys []string
	err := c.withConn(ctx, log, func(conn Conn) error {
		var err error
		keys, err = conn.List(ctx)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("list failed")
		return nil, c.wrap("list", err)
	}

	if keys == nil {
		keys = []string{}
	}

	log.Info().Int("count", len(keys)).Msg("objects listed")
	return keys, nil
}

// Check reports whether key exists. OutcomeNotFound is returned only when
// the backend reports the key absent; every other failure is an error.
func (c *Client) Check(ctx context.Context, key string) (Outcome, error) {
	log := c.opLogger("exists", key)

	if key == "" {
		return OutcomeFailed, c.wrap("exists", ErrInvalidKey)
	}

	err := c.withConn(ctx, log, func(conn Conn) error {
		return conn.Head(ctx, key)
	})
	if err != nil {
		if IsNotFound(err) {
			log.Info().Msg("object not found")
			return OutcomeNotFound, nil
		}
		log.Error().Err(err).Msg("failed to check object")
		return OutcomeFailed, c.wrap("exists", err)
	}

	log.Info().Msg("object exists")
	return OutcomeFound, nil
}

// Exists reports whether key exists. It is false only for a not-found
// condition; any other failure is returned.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	outcome, err := c.Check(ctx, key)
	if err != nil {
		return false, err
	}
	return outcome == OutcomeFound, nil
}

// withConn runs fn on a fresh connection and releases it on every exit path
func (c *Client) withConn(ctx context.Context, log zerolog.Logger, fn func(Conn) error) error {
	if err := ctx.Err(); err != nil {
		return ContextError(err)
	}

	conn, err := c.backend.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to release connection")
		}
	}()

	return fn(conn)
}

func (c *Client) opLogger(op, key string) zerolog.Logger {
	ctx := c.logger.With().
		Str("op", op).
		Str("op_id", uuid.NewString()).
		Str("backend", c.backend.Type()).
		Str("container", c.cfg.Container)
	if key != "" {
		ctx = ctx.Str("key", key)
	}
	return ctx.Logger()
}

func (c *Client) wrap(operation string, err error) error {
	return WrapError(c.backend.Type(), operation, err)
}
