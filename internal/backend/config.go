package backend

import (
	"errors"
	"fmt"
	"strings"

	"defter/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (valid: %s)", appConfig.DataBackend, validTypes())
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		BoltDBPath:   appConfig.BoltDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		CacheSize:    appConfig.CacheSize,
		CacheTTL:     appConfig.CacheTTL,
		Locale:       appConfig.LedgerLocale(),
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (valid: %s)", c.Type, validTypes())
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.Type == BoltBackend && c.BoltDBPath == "" {
		return fmt.Errorf("bolt database path is required for bolt backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when the cache is enabled")
	}
	return nil
}

// ErrNotShared is returned by RequireShared for stores that a second process
// cannot open next to the API server.
var ErrNotShared = errors.New("backend cannot be shared between processes")

// RequireShared fails unless the configured store can be opened by a process
// running alongside the API server, such as the export worker.
func (c Config) RequireShared() error {
	if !c.Type.Shared() {
		return fmt.Errorf("%w: %s (use %s)", ErrNotShared, c.Type, SQLiteBackend)
	}
	return nil
}

func validTypes() string {
	return strings.Join(GetBackendTypeStrings(), ", ")
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend, BoltBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
