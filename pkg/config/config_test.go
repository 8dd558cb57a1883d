package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClientConfig() ClientConfig {
	return ClientConfig{
		KeyID:     "key",
		Secret:    "secret",
		Endpoint:  "https://s3.example.com",
		Container: "test-bucket",
	}
}

func TestClientConfig_Validate(t *testing.T) {
	t.Run("all_fields_present", func(t *testing.T) {
		assert.NoError(t, validClientConfig().Validate())
	})

	fields := []struct {
		name  string
		clear func(*ClientConfig)
	}{
		{"key_id", func(c *ClientConfig) { c.KeyID = "" }},
		{"secret", func(c *ClientConfig) { c.Secret = "" }},
		{"endpoint", func(c *ClientConfig) { c.Endpoint = "" }},
		{"container", func(c *ClientConfig) { c.Container = "   " }},
	}

	for _, tt := range fields {
		t.Run("missing_"+tt.name, func(t *testing.T) {
			cfg := validClientConfig()
			tt.clear(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.name, cfgErr.Field)
		})
	}

	t.Run("reports_every_missing_field", func(t *testing.T) {
		err := ClientConfig{}.Validate()
		require.Error(t, err)
		for _, field := range []string{"key_id", "secret", "endpoint", "container"} {
			assert.Contains(t, err.Error(), field)
		}
	})

	t.Run("endpoint_must_be_absolute", func(t *testing.T) {
		cfg := validClientConfig()
		cfg.Endpoint = "s3.example.com"

		var cfgErr *ConfigError
		require.True(t, errors.As(cfg.Validate(), &cfgErr))
		assert.Equal(t, "endpoint", cfgErr.Field)
	})

	t.Run("file_endpoint_needs_path", func(t *testing.T) {
		cfg := validClientConfig()
		cfg.Endpoint = "file:///var/lib/objects"
		assert.NoError(t, cfg.Validate())

		cfg.Endpoint = "file://"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown_missing_file_policy", func(t *testing.T) {
		cfg := validClientConfig()
		cfg.MissingFilePolicy = "ignore"

		var cfgErr *ConfigError
		require.True(t, errors.As(cfg.Validate(), &cfgErr))
		assert.Equal(t, "missing_file_policy", cfgErr.Field)
	})
}

func TestClientConfig_Defaults(t *testing.T) {
	cfg := validClientConfig()
	assert.Equal(t, "s3", cfg.GetType())
	assert.Equal(t, "us-east-1", cfg.GetRegion())
	assert.True(t, cfg.GetUsePathStyle())
	assert.Equal(t, MissingFileSkip, cfg.GetMissingFilePolicy())

	pathStyle := false
	cfg.Type = "minio"
	cfg.Region = "eu-central-1"
	cfg.UsePathStyle = &pathStyle
	cfg.MissingFilePolicy = MissingFileFail
	assert.Equal(t, "minio", cfg.GetType())
	assert.Equal(t, "eu-central-1", cfg.GetRegion())
	assert.False(t, cfg.GetUsePathStyle())
	assert.Equal(t, MissingFileFail, cfg.GetMissingFilePolicy())

	root := &Config{}
	assert.Equal(t, "info", root.GetLogLevel())
	assert.Equal(t, "console", root.GetLogFormat())
	assert.Equal(t, 3, root.GetMaxConcurrentTransfers())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestParseConfig(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		p := writeFile(t, "objstore.json", `{
			"storage": {
				"key_id": "key",
				"secret": "secret",
				"endpoint": "http://localhost:9000",
				"container": "test-bucket",
				"type": "minio",
				"use_path_style": false
			},
			"log_level": "debug",
			"max_concurrent_transfers": 5
		}`)

		cfg, err := ParseConfig(p)
		require.NoError(t, err)
		assert.Equal(t, "minio", cfg.Storage.GetType())
		assert.Equal(t, "test-bucket", cfg.Storage.Container)
		assert.False(t, cfg.Storage.GetUsePathStyle())
		assert.Equal(t, "debug", cfg.GetLogLevel())
		assert.Equal(t, 5, cfg.GetMaxConcurrentTransfers())
	})

	t.Run("toml", func(t *testing.T) {
		p := writeFile(t, "objstore.toml", `
log_format = "json"

[storage]
key_id = "key"
secret = "secret"
endpoint = "file:///srv/objects"
container = "test-bucket"
type = "local"
`)

		cfg, err := ParseConfig(p)
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Storage.GetType())
		assert.Equal(t, "file:///srv/objects", cfg.Storage.Endpoint)
		assert.Equal(t, "json", cfg.GetLogFormat())
	})

	t.Run("schema_violation", func(t *testing.T) {
		p := writeFile(t, "objstore.json", `{
			"storage": {"type": "ftp"},
			"log_level": "verbose"
		}`)

		_, err := ParseConfig(p)
		require.Error(t, err)

		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("relative_endpoint_rejected", func(t *testing.T) {
		p := writeFile(t, "objstore.json", `{"storage": {"endpoint": "s3.example.com"}}`)

		_, err := ParseConfig(p)
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, cfgErr.Field, "endpoint")
	})

	t.Run("unknown_field", func(t *testing.T) {
		p := writeFile(t, "objstore.json", `{"storage": {}, "bucket": "x"}`)

		_, err := ParseConfig(p)
		assert.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := ParseConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("environment_only", func(t *testing.T) {
		t.Setenv(EnvKeyID, "env-key")
		t.Setenv(EnvSecret, "env-secret")
		t.Setenv(EnvEndpoint, "https://s3.example.com")
		t.Setenv(EnvContainer, "env-bucket")
		t.Setenv(EnvUsePathStyle, "false")
		t.Setenv(EnvMaxConcurrentTransfers, "7")

		cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.Storage.KeyID)
		assert.Equal(t, "env-secret", cfg.Storage.Secret)
		assert.Equal(t, "env-bucket", cfg.Storage.Container)
		assert.False(t, cfg.Storage.GetUsePathStyle())
		assert.Equal(t, 7, cfg.GetMaxConcurrentTransfers())
		assert.NoError(t, cfg.Storage.Validate())
	})

	t.Run("environment_overrides_file", func(t *testing.T) {
		p := writeFile(t, "objstore.json", `{
			"storage": {
				"key_id": "file-key",
				"secret": "file-secret",
				"endpoint": "https://s3.example.com",
				"container": "file-bucket"
			}
		}`)
		t.Setenv(EnvContainer, "env-bucket")

		cfg, err := Load(p, filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, "file-key", cfg.Storage.KeyID)
		assert.Equal(t, "env-bucket", cfg.Storage.Container)
	})

	t.Run("file_leaves_endpoint_to_environment", func(t *testing.T) {
		p := writeFile(t, "objstore.json", `{"storage":{"key_id":"k","secret":"s","container":"test-bucket"}}`)
		t.Setenv(EnvEndpoint, "https://s3.example.com")

		cfg, err := Load(p, filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example.com", cfg.Storage.Endpoint)
		assert.NoError(t, cfg.Storage.Validate())
	})

	t.Run("toml_file_with_only_type", func(t *testing.T) {
		p := writeFile(t, "objstore.toml", "[storage]\ntype = \"s3\"\n")
		t.Setenv(EnvKeyID, "k")
		t.Setenv(EnvSecret, "s")
		t.Setenv(EnvEndpoint, "https://s3.example.com")
		t.Setenv(EnvContainer, "test-bucket")

		cfg, err := Load(p, filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, "s3", cfg.Storage.GetType())
		assert.NoError(t, cfg.Storage.Validate())
	})

	t.Run("dotenv_file", func(t *testing.T) {
		envFile := writeFile(t, ".env", "REGION=ap-southeast-2\n")
		t.Setenv(EnvRegion, "")
		os.Unsetenv(EnvRegion)

		cfg, err := Load("", envFile)
		require.NoError(t, err)
		assert.Equal(t, "ap-southeast-2", cfg.Storage.GetRegion())
	})
}
