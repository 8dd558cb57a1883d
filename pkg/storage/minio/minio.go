package minio

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/williamokano/objstore/pkg/config"
	"github.com/williamokano/objstore/pkg/storage"
)

// Backend talks to MinIO (or any S3-compatible endpoint) through minio-go
type Backend struct {
	host               string
	secure             bool
	keyID              string
	secret             string
	region             string
	bucket             string
	lookup             miniogo.BucketLookupType
	insecureSkipVerify bool
}

func init() {
	storage.RegisterBackend("minio", func(cfg config.ClientConfig) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new MinIO backend. minio-go wants a bare host:port, so the
// scheme of the endpoint only selects TLS.
func New(cfg config.ClientConfig) (*Backend, error) {
	u := cfg.EndpointURL()
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &config.ConfigError{Field: "endpoint", Reason: "minio backend requires an http or https endpoint"}
	}

	lookup := miniogo.BucketLookupDNS
	if cfg.GetUsePathStyle() {
		lookup = miniogo.BucketLookupPath
	}

	return &Backend{
		host:               u.Host,
		secure:             u.Scheme == "https",
		keyID:              cfg.KeyID,
		secret:             cfg.Secret,
		region:             cfg.GetRegion(),
		bucket:             cfg.Container,
		lookup:             lookup,
		insecureSkipVerify: cfg.InsecureSkipVerify,
	}, nil
}

func (b *Backend) Type() string { return "minio" }

// Connect builds a minio client on its own transport
func (b *Backend) Connect(ctx context.Context) (storage.Conn, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if b.insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := miniogo.New(b.host, &miniogo.Options{
		Creds:        credentials.NewStaticV4(b.keyID, b.secret, ""),
		Secure:       b.secure,
		Region:       b.region,
		Transport:    transport,
		BucketLookup: b.lookup,
	})
	if err != nil {
		transport.CloseIdleConnections()
		return nil, storage.Classify(storage.ErrConnFailed, err)
	}

	return &conn{client: client, transport: transport, bucket: b.bucket}, nil
}

type conn struct {
	client    *miniogo.Client
	transport *http.Transport
	bucket    string
}

func (c *conn) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, r, size, miniogo.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return classify(err)
}

// Get streams the object; minio-go defers the request until the first read
func (c *conn) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return 0, classify(err)
	}
	defer obj.Close()

	n, err := io.Copy(w, obj)
	return n, classify(err)
}

func (c *conn) Delete(ctx context.Context, key string) error {
	return classify(c.client.RemoveObject(ctx, c.bucket, key, miniogo.RemoveObjectOptions{}))
}

func (c *conn) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range c.client.ListObjects(ctx, c.bucket, miniogo.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, classify(obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (c *conn) Head(ctx context.Context, key string) error {
	_, err := c.client.StatObject(ctx, c.bucket, key, miniogo.StatObjectOptions{})
	return classify(err)
}

func (c *conn) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// classify maps minio-go errors onto the storage sentinels. StatObject on a
// missing bucket is reported as a missing key.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if cerr := storage.ContextError(err); cerr != nil {
		return cerr
	}

	resp := miniogo.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket":
		return storage.Classify(storage.ErrNoContainer, err)
	case "NoSuchKey", "NotFound":
		return storage.Classify(storage.ErrNotFound, err)
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return storage.Classify(storage.ErrAuthFailed, err)
	case "AccessDenied", "AllAccessDisabled":
		return storage.Classify(storage.ErrPermissionDenied, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return storage.Classify(storage.ErrNotFound, err)
	case http.StatusUnauthorized:
		return storage.Classify(storage.ErrAuthFailed, err)
	case http.StatusForbidden:
		return storage.Classify(storage.ErrPermissionDenied, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return storage.Classify(storage.ErrTimeout, err)
		}
		return storage.Classify(storage.ErrConnFailed, err)
	}

	return fmt.Errorf("minio: %w", err)
}
