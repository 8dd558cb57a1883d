package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ParseConfig reads a configuration file (JSON, or TOML for *.toml) and
// validates it against the schema
func ParseConfig(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var config Config
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".toml":
		err = toml.NewDecoder(file).DisallowUnknownFields().Decode(&config)
	default:
		dec := json.NewDecoder(file)
		dec.DisallowUnknownFields()
		err = dec.Decode(&config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
