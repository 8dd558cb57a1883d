package config

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validate validates a decoded configuration against the JSON schema.
// Required storage fields are checked later by ClientConfig.Validate.
func Validate(cfg *Config) error {
	schemaLoader := gojsonschema.NewStringLoader(Schema)
	documentLoader := gojsonschema.NewGoLoader(cfg)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var errs []error
	for _, desc := range result.Errors() {
		errs = append(errs, &ConfigError{Field: desc.Field(), Reason: desc.Description()})
	}
	return errors.Join(errs...)
}
