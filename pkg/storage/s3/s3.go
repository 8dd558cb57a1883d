package s3

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	objconfig "github.com/williamokano/objstore/pkg/config"
	"github.com/williamokano/objstore/pkg/storage"
)

// Backend talks to AWS S3 or any S3-compatible endpoint
type Backend struct {
	awsCfg             aws.Config
	endpoint           string
	bucket             string
	usePathStyle       bool
	insecureSkipVerify bool
}

func init() {
	storage.RegisterBackend("s3", func(cfg objconfig.ClientConfig) (storage.Backend, error) {
		return New(context.Background(), cfg)
	})
}

// New creates a new S3 backend. Credentials are static; nothing is sent
// over the network until Connect.
func New(ctx context.Context, cfg objconfig.ClientConfig) (*Backend, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.GetRegion()),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.KeyID,
				cfg.Secret,
				"",
			),
		),
	)
	if err != nil {
		return nil, storage.WrapError("s3", "init", err)
	}

	return &Backend{
		awsCfg:             awsCfg,
		endpoint:           cfg.Endpoint,
		bucket:             cfg.Container,
		usePathStyle:       cfg.GetUsePathStyle(),
		insecureSkipVerify: cfg.InsecureSkipVerify,
	}, nil
}

func (b *Backend) Type() string { return "s3" }

// Connect builds an S3 client on its own transport
func (b *Backend) Connect(ctx context.Context) (storage.Conn, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if b.insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := s3.NewFromConfig(b.awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(b.endpoint)
		o.UsePathStyle = b.usePathStyle
		o.HTTPClient = &http.Client{Transport: transport}
		// S3-compatible stores often reject the newer default checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &conn{client: client, bucket: b.bucket, transport: transport}, nil
}

type conn struct {
	client    *s3.Client
	bucket    string
	transport *http.Transport
}

// Put uploads through the transfer manager, which switches to multipart
// for large bodies and works out the length itself
func (c *conn) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   r,
	}

	if _, err := manager.NewUploader(c.client).Upload(ctx, input); err != nil {
		return classify(err)
	}
	return nil
}

func (c *conn) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, classify(err)
	}
	defer out.Body.Close()

	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, classify(err)
	}
	return n, nil
}

// Delete removes key. S3 acknowledges deletes of absent keys, so ErrNotFound
// only appears for stores that report 404.
func (c *conn) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (c *conn) List(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}

		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

func (c *conn) Head(ctx context.Context, key string) error {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (c *conn) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// classify maps SDK errors onto storage sentinels. Error codes are checked
// before HTTP statuses because S3 answers 404 for both a missing key and a
// missing bucket. HEAD responses carry no body, so a missing bucket on
// HeadObject is a bare 404 and reads as ErrNotFound.
func classify(err error) error {
	if ctxErr := storage.ContextError(err); ctxErr != nil {
		return ctxErr
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	switch {
	case errors.As(err, &noSuchBucket):
		return storage.Classify(storage.ErrNoContainer, err)
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return storage.Classify(storage.ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return storage.Classify(storage.ErrNoContainer, err)
		case "NoSuchKey", "NotFound":
			return storage.Classify(storage.ErrNotFound, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "InvalidToken", "ExpiredToken":
			return storage.Classify(storage.ErrAuthFailed, err)
		case "AccessDenied", "AllAccessDisabled":
			return storage.Classify(storage.ErrPermissionDenied, err)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return storage.Classify(storage.ErrNotFound, err)
		case http.StatusUnauthorized:
			return storage.Classify(storage.ErrAuthFailed, err)
		case http.StatusForbidden:
			return storage.Classify(storage.ErrPermissionDenied, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return storage.Classify(storage.ErrTimeout, err)
		}
		return storage.Classify(storage.ErrConnFailed, err)
	}
	return fmt.Errorf("s3: %w", err)
}
