package backblaze

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/kurin/blazer/b2"

	"github.com/williamokano/objstore/pkg/config"
	"github.com/williamokano/objstore/pkg/storage"
)

// DefaultAPIHost is the host blazer authorizes against
const DefaultAPIHost = "api.backblazeb2.com"

// Backend talks to Backblaze B2 through its native API
type Backend struct {
	accountID          string
	applicationKey     string
	bucketName         string
	endpoint           *url.URL
	insecureSkipVerify bool
}

func init() {
	storage.RegisterBackend("backblaze", func(cfg config.ClientConfig) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new Backblaze B2 backend. key_id is the account or
// application key ID, secret the application key and container the
// bucket name.
func New(cfg config.ClientConfig) (*Backend, error) {
	u := cfg.EndpointURL()
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &config.ConfigError{Field: "endpoint", Reason: "backblaze backend requires an http or https endpoint"}
	}

	return &Backend{
		accountID:          cfg.KeyID,
		applicationKey:     cfg.Secret,
		bucketName:         cfg.Container,
		endpoint:           u,
		insecureSkipVerify: cfg.InsecureSkipVerify,
	}, nil
}

func (b *Backend) Type() string { return "backblaze" }

// Connect authorizes the account and resolves the bucket
func (b *Backend) Connect(ctx context.Context) (storage.Conn, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if b.insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var rt http.RoundTripper = transport
	if b.endpoint.Host != DefaultAPIHost {
		rt = &apiRewriter{target: b.endpoint, next: transport}
	}

	client, err := b2.NewClient(ctx, b.accountID, b.applicationKey, b2.Transport(rt))
	if err != nil {
		transport.CloseIdleConnections()
		if cerr := storage.ContextError(err); cerr != nil {
			return nil, cerr
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return nil, storage.Classify(storage.ErrConnFailed, err)
		}
		return nil, storage.Classify(storage.ErrAuthFailed, err)
	}

	bucket, err := client.Bucket(ctx, b.bucketName)
	if err != nil {
		transport.CloseIdleConnections()
		if b2.IsNotExist(err) {
			return nil, storage.Classify(storage.ErrNoContainer, err)
		}
		return nil, classify(err)
	}

	return &conn{bucket: bucket, transport: transport}, nil
}

type conn struct {
	bucket    *b2.Bucket
	transport *http.Transport
}

func (c *conn) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	w := c.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return classify(err)
	}
	return classify(w.Close())
}

func (c *conn) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	r := c.bucket.Object(key).NewReader(ctx)
	defer r.Close()

	n, err := io.Copy(w, r)
	return n, classify(err)
}

// Delete returns ErrNotFound for an absent key
func (c *conn) Delete(ctx context.Context, key string) error {
	return classify(c.bucket.Object(key).Delete(ctx))
}

func (c *conn) List(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.bucket.List(ctx)
	for iter.Next() {
		keys = append(keys, iter.Object().Name())
	}
	if err := iter.Err(); err != nil {
		return nil, classify(err)
	}
	return keys, nil
}

func (c *conn) Head(ctx context.Context, key string) error {
	_, err := c.bucket.Object(key).Attrs(ctx)
	return classify(err)
}

func (c *conn) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// apiRewriter sends authorization calls to a non-default API host. Later
// calls use the URLs returned by the authorization response.
type apiRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func (a *apiRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != DefaultAPIHost {
		return a.next.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.URL.Scheme = a.target.Scheme
	out.URL.Host = a.target.Host
	out.Host = a.target.Host
	return a.next.RoundTrip(out)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if cerr := storage.ContextError(err); cerr != nil {
		return cerr
	}
	if b2.IsNotExist(err) {
		return storage.Classify(storage.ErrNotFound, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return storage.Classify(storage.ErrTimeout, err)
		}
		return storage.Classify(storage.ErrConnFailed, err)
	}

	return fmt.Errorf("backblaze: %w", err)
}
