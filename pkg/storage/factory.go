package storage

import (
	"fmt"
	"sort"

	"github.com/williamokano/objstore/pkg/config"
)

// BackendConstructor creates a backend from validated settings. It must not
// perform network I/O.
type BackendConstructor func(cfg config.ClientConfig) (Backend, error)

var backendRegistry = make(map[string]BackendConstructor)

// RegisterBackend registers a backend constructor
func RegisterBackend(backendType string, constructor BackendConstructor) {
	backendRegistry[backendType] = constructor
}

// RegisteredTypes returns the registered backend types, sorted
func RegisteredTypes() []string {
	types := make([]string, 0, len(backendRegistry))
	for t := range backendRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewBackend instantiates the backend named by cfg.Type
func NewBackend(cfg config.ClientConfig) (Backend, error) {
	constructor, ok := backendRegistry[cfg.GetType()]
	if !ok {
		return nil, &config.ConfigError{
			Field:  "type",
			Reason: fmt.Sprintf("unknown backend type %q (registered: %v)", cfg.GetType(), RegisteredTypes()),
		}
	}

	return constructor(cfg)
}
