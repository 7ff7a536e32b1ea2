package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config represents the complete engine configuration.
type Config struct {
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// Executor configuration
	Executor ExecutorConfig `json:"executor"`

	// Metastore configuration
	Metastore MetastoreConfig `json:"metastore"`
}

// ExecutorConfig represents execution-specific configuration.
type ExecutorConfig struct {
	// VectorSize is the target number of rows per output batch.
	VectorSize int `json:"vector_size"`
	// MemoryCeiling is the per-process memory ceiling in bytes enforced by
	// the governor (0 disables enforcement).
	MemoryCeiling int64 `json:"memory_ceiling"`
}

// MetastoreConfig represents metastore-client configuration.
type MetastoreConfig struct {
	// DSN is the primary metastore endpoint (lib/pq connection string).
	DSN string `json:"dsn"`
	// Replicas are fallback endpoints tried in order when the primary fails.
	Replicas []string `json:"replicas"`
	// CacheTTL bounds how long resolved namespaces are served from cache.
	CacheTTL Duration `json:"cache_ttl"`
}

// Duration wraps time.Duration for JSON encoding as a string like "5m".
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Executor: ExecutorConfig{
			VectorSize:    1024,
			MemoryCeiling: 0,
		},
		Metastore: MetastoreConfig{
			CacheTTL: Duration(5 * time.Minute),
		},
	}
}

// LoadFromFile loads configuration from a JSON file, applying defaults for
// any fields the file omits.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration for consistency.
func (c *Config) Validate() error {
	if c.Executor.VectorSize <= 0 {
		return fmt.Errorf("executor.vector_size must be positive, got %d", c.Executor.VectorSize)
	}
	if c.Executor.MemoryCeiling < 0 {
		return fmt.Errorf("executor.memory_ceiling must not be negative, got %d", c.Executor.MemoryCeiling)
	}
	if c.Metastore.CacheTTL < 0 {
		return fmt.Errorf("metastore.cache_ttl must not be negative")
	}
	return nil
}
