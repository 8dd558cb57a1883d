//go:build integration
// +build integration

package s3_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"

	"github.com/williamokano/objstore/pkg/config"
	"github.com/williamokano/objstore/pkg/storage"
	_ "github.com/williamokano/objstore/pkg/storage/s3"
)

func TestS3Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	lsContainer, endpoint, err := setupLocalStackContainer(ctx)
	require.NoError(t, err, "Failed to start LocalStack")
	defer lsContainer.Terminate(ctx)

	require.NoError(t, createBucket(ctx, endpoint, "test-bucket"))

	client, err := storage.New(config.ClientConfig{
		KeyID:     "test",
		Secret:    "test",
		Endpoint:  endpoint,
		Container: "test-bucket",
	}, zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)

	t.Run("round_trip", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "data.txt")
		require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

		outcome, err := client.Upload(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, storage.UploadCompleted, outcome)

		exists, err := client.Exists(ctx, "data.txt")
		require.NoError(t, err)
		assert.True(t, exists)

		dst := filepath.Join(dir, "copy.txt")
		got, err := client.Download(ctx, "data.txt", dst)
		require.NoError(t, err)
		assert.Equal(t, storage.OutcomeFound, got)

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		removed, err := client.Remove(ctx, "data.txt")
		require.NoError(t, err)
		assert.NotEqual(t, storage.OutcomeFailed, removed)

		exists, err = client.Exists(ctx, "data.txt")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = client.Remove(ctx, "data.txt")
		assert.NoError(t, err, "removing an absent key succeeds")
	})

	t.Run("list", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"a", "b", "c"} {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(name), 0644))
			_, err := client.Upload(ctx, path)
			require.NoError(t, err)
		}

		keys, err := client.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, keys)
	})

	t.Run("missing_bucket", func(t *testing.T) {
		other, err := storage.New(config.ClientConfig{
			KeyID:     "test",
			Secret:    "test",
			Endpoint:  endpoint,
			Container: "no-such-bucket",
		}, zerolog.Nop())
		require.NoError(t, err)

		_, err = other.Exists(ctx, "data.txt")
		assert.Error(t, err)
	})
}

func setupLocalStackContainer(ctx context.Context) (*localstack.LocalStackContainer, string, error) {
	lsContainer, err := localstack.RunContainer(ctx,
		testcontainers.WithImage("localstack/localstack:3.0"),
		testcontainers.WithEnv(map[string]string{
			"SERVICES": "s3",
		}),
	)
	if err != nil {
		return nil, "", err
	}

	mappedPort, err := lsContainer.MappedPort(ctx, "4566/tcp")
	if err != nil {
		lsContainer.Terminate(ctx)
		return nil, "", err
	}

	host, err := lsContainer.Host(ctx)
	if err != nil {
		lsContainer.Terminate(ctx)
		return nil, "", err
	}

	return lsContainer, fmt.Sprintf("http://%s:%s", host, mappedPort.Port()), nil
}

func createBucket(ctx context.Context, endpoint, bucket string) error {
	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	if err != nil {
		return err
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(bucket)})
	return err
}
