package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable names. The four credentials keep the names used by
// existing deployments.
const (
	EnvKeyID                  = "KEY_ID"
	EnvSecret                 = "SECRET"
	EnvEndpoint               = "ENDPOINT"
	EnvContainer              = "CONTAINER"
	EnvType                   = "STORAGE_TYPE"
	EnvRegion                 = "REGION"
	EnvUsePathStyle           = "USE_PATH_STYLE"
	EnvInsecureSkipVerify     = "INSECURE_SKIP_VERIFY"
	EnvMissingFilePolicy      = "MISSING_FILE_POLICY"
	EnvKnownHosts             = "KNOWN_HOSTS"
	EnvLogLevel               = "LOG_LEVEL"
	EnvLogFormat              = "LOG_FORMAT"
	EnvLogFile                = "LOG_FILE"
	EnvMaxConcurrentTransfers = "MAX_CONCURRENT_TRANSFERS"
)

// LoadEnvFiles loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with every environment variable that is set
func ApplyEnv(cfg *Config) {
	v := viper.New()
	v.AutomaticEnv()

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setString(EnvKeyID, &cfg.Storage.KeyID)
	setString(EnvSecret, &cfg.Storage.Secret)
	setString(EnvEndpoint, &cfg.Storage.Endpoint)
	setString(EnvContainer, &cfg.Storage.Container)
	setString(EnvType, &cfg.Storage.Type)
	setString(EnvRegion, &cfg.Storage.Region)
	setString(EnvMissingFilePolicy, &cfg.Storage.MissingFilePolicy)
	setString(EnvKnownHosts, &cfg.Storage.KnownHosts)
	setString(EnvLogLevel, &cfg.LogLevel)
	setString(EnvLogFormat, &cfg.LogFormat)
	setString(EnvLogFile, &cfg.LogFile)

	if v.IsSet(EnvUsePathStyle) {
		pathStyle := v.GetBool(EnvUsePathStyle)
		cfg.Storage.UsePathStyle = &pathStyle
	}
	if v.IsSet(EnvInsecureSkipVerify) {
		cfg.Storage.InsecureSkipVerify = v.GetBool(EnvInsecureSkipVerify)
	}
	if v.IsSet(EnvMaxConcurrentTransfers) {
		cfg.MaxConcurrentTransfers = v.GetInt(EnvMaxConcurrentTransfers)
	}
}

// Load builds the configuration from an optional config file, then applies
// environment overrides (after loading envFiles)
func Load(configFile string, envFiles ...string) (*Config, error) {
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if configFile != "" {
		parsed, err := ParseConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	ApplyEnv(cfg)
	return cfg, nil
}
