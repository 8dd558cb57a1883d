package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Missing file policies for uploads
const (
	MissingFileSkip = "skip" // log and return without a transfer
	MissingFileFail = "fail" // return storage.ErrLocalFileMissing
)

// ClientConfig holds the connection settings of a single object store client
type ClientConfig struct {
	// Credentials may be left to the environment, so absent values skip the schema
	KeyID     string `json:"key_id,omitempty" toml:"key_id"`
	Secret    string `json:"secret,omitempty" toml:"secret"`
	Endpoint  string `json:"endpoint,omitempty" toml:"endpoint"`   // URL, e.g. https://s3.example.com or file:///srv/objects
	Container string `json:"container,omitempty" toml:"container"` // bucket name

	Type               string `json:"type,omitempty" toml:"type"`                                 // s3, minio, backblaze, ssh, local (default: s3)
	Region             string `json:"region,omitempty" toml:"region"`                             // default: us-east-1
	UsePathStyle       *bool  `json:"use_path_style,omitempty" toml:"use_path_style"`             // default: true
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty" toml:"insecure_skip_verify"` // TLS verification, or ssh host key checking
	MissingFilePolicy  string `json:"missing_file_policy,omitempty" toml:"missing_file_policy"`   // skip, fail (default: skip)
	KnownHosts         string `json:"known_hosts,omitempty" toml:"known_hosts"`                   // ssh only
}

// Config is the root configuration structure of the objstore command
type Config struct {
	Storage                ClientConfig `json:"storage" toml:"storage"`
	LogLevel               string       `json:"log_level,omitempty" toml:"log_level"`                               // debug, info, warn, error (default: info)
	LogFormat              string       `json:"log_format,omitempty" toml:"log_format"`                             // json, console (default: console)
	LogFile                string       `json:"log_file,omitempty" toml:"log_file"`                                 // optional, appended as JSON lines
	MaxConcurrentTransfers int          `json:"max_concurrent_transfers,omitempty" toml:"max_concurrent_transfers"` // default: 3
}

// ConfigError reports a missing or malformed configuration field
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Validate checks every required field. All problems are reported at once.
func (c ClientConfig) Validate() error {
	var errs []error

	required := []struct {
		field string
		value string
	}{
		{"key_id", c.KeyID},
		{"secret", c.Secret},
		{"endpoint", c.Endpoint},
		{"container", c.Container},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, &ConfigError{Field: r.field, Reason: "is required"})
		}
	}

	if strings.TrimSpace(c.Endpoint) != "" {
		if err := validateEndpoint(c.Endpoint); err != nil {
			errs = append(errs, err)
		}
	}

	switch c.MissingFilePolicy {
	case "", MissingFileSkip, MissingFileFail:
	default:
		errs = append(errs, &ConfigError{
			Field:  "missing_file_policy",
			Reason: fmt.Sprintf("must be %q or %q, got %q", MissingFileSkip, MissingFileFail, c.MissingFilePolicy),
		})
	}

	return errors.Join(errs...)
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return &ConfigError{Field: "endpoint", Reason: err.Error()}
	}
	if u.Scheme == "" {
		return &ConfigError{Field: "endpoint", Reason: "must be an absolute URL"}
	}
	if u.Scheme == "file" {
		if u.Path == "" {
			return &ConfigError{Field: "endpoint", Reason: "file URL has no path"}
		}
		return nil
	}
	if u.Host == "" {
		return &ConfigError{Field: "endpoint", Reason: "has no host"}
	}
	return nil
}

// EndpointURL returns the parsed endpoint. Call after Validate.
func (c ClientConfig) EndpointURL() *url.URL {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// GetType returns the backend type (defaults to s3)
func (c ClientConfig) GetType() string {
	if c.Type != "" {
		return c.Type
	}
	return "s3"
}

// GetRegion returns the signing region (defaults to us-east-1)
func (c ClientConfig) GetRegion() string {
	if c.Region != "" {
		return c.Region
	}
	return "us-east-1"
}

// GetUsePathStyle returns whether path-style addressing is used (defaults to true)
func (c ClientConfig) GetUsePathStyle() bool {
	if c.UsePathStyle != nil {
		return *c.UsePathStyle
	}
	return true
}

// GetMissingFilePolicy returns the upload policy for missing local files (defaults to skip)
func (c ClientConfig) GetMissingFilePolicy() string {
	if c.MissingFilePolicy != "" {
		return c.MissingFilePolicy
	}
	return MissingFileSkip
}

// GetLogLevel returns the log level (defaults to info)
func (c *Config) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

// GetLogFormat returns the log format (defaults to console)
func (c *Config) GetLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	return "console"
}

// GetMaxConcurrentTransfers returns the batch concurrency (defaults to 3)
func (c *Config) GetMaxConcurrentTransfers() int {
	if c.MaxConcurrentTransfers > 0 {
		return c.MaxConcurrentTransfers
	}
	return 3
}
