package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/williamokano/objstore/pkg/config"
	"github.com/williamokano/objstore/pkg/storage"
)

// Backend stores objects as files under <endpoint path>/<container>
type Backend struct {
	root string
}

func init() {
	storage.RegisterBackend("local", func(cfg config.ClientConfig) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new local filesystem backend from a file:// endpoint
func New(cfg config.ClientConfig) (*Backend, error) {
	u := cfg.EndpointURL()
	if u.Scheme != "file" || u.Path == "" {
		return nil, &config.ConfigError{Field: "endpoint", Reason: "local backend requires a file:///path endpoint"}
	}

	return &Backend{
		root: filepath.Join(filepath.FromSlash(u.Path), cfg.Container),
	}, nil
}

func (b *Backend) Type() string { return "local" }

// Root returns the directory holding the container's objects
func (b *Backend) Root() string { return b.root }

// Connect ensures the container directory exists
func (b *Backend) Connect(ctx context.Context) (storage.Conn, error) {
	if err := os.MkdirAll(b.root, 0755); err != nil {
		return nil, classify(err)
	}
	return &conn{root: b.root}, nil
}

type conn struct {
	root string
}

func (c *conn) path(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	return filepath.Join(c.root, filepath.FromSlash(key)), nil
}

// Put writes to a temporary sibling and renames it over the target
func (c *conn) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	dest, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return classify(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), storage.TempPrefix+"*")
	if err != nil {
		return classify(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return classify(err)
	}
	if err := tmp.Close(); err != nil {
		return classify(err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return classify(err)
	}

	return classify(os.Rename(tmp.Name(), dest))
}

func (c *conn) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	src, err := c.path(key)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(src)
	if err != nil {
		return 0, classify(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, classify(err)
	}
	if info.IsDir() {
		return 0, storage.Classify(storage.ErrNotFound, fmt.Errorf("%s is a directory", key))
	}

	n, err := io.Copy(w, f)
	return n, classify(err)
}

// Delete returns ErrNotFound for an absent key
func (c *conn) Delete(ctx context.Context, key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	return classify(os.Remove(path))
}

// List walks the container and returns slash-separated keys, sorted.
// In-flight temporary files are skipped.
func (c *conn) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() || storage.IsTempName(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *conn) Head(ctx context.Context, key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return classify(err)
	}
	if !info.Mode().IsRegular() {
		return storage.Classify(storage.ErrNotFound, fmt.Errorf("%s is not a regular file", key))
	}
	return nil
}

// Close is a no-op for local backend
func (c *conn) Close() error {
	return nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if cerr := storage.ContextError(err); cerr != nil {
		return cerr
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return storage.Classify(storage.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return storage.Classify(storage.ErrPermissionDenied, err)
	}
	return fmt.Errorf("local: %w", err)
}
