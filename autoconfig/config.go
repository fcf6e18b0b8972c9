// Package autoconfig wires a ready-to-use vecstore.Store from a YAML
// configuration file: backend selection by driver name, the embedding
// provider, logging and optional metrics.
package autoconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Driver names accepted in store.driver.
const (
	DriverGemFire = "gemfire"
	DriverRedis   = "redis"
)

// Config is the root of the YAML configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	GemFire   GemFireConfig   `yaml:"gemfire"`
	Redis     RedisConfig     `yaml:"redis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StoreConfig selects the backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // gemfire, redis (default: gemfire)
}

// GemFireConfig holds the gemfire backend settings. Zero values keep the
// builder defaults.
type GemFireConfig struct {
	Host                 string   `yaml:"host"`
	Port                 int      `yaml:"port"`
	SSL                  bool     `yaml:"ssl"`
	IndexName            string   `yaml:"index_name"`
	BeamWidth            int      `yaml:"beam_width"`
	MaxConnections       int      `yaml:"max_connections"`
	Buckets              int      `yaml:"buckets"`
	SimilarityFunction   string   `yaml:"similarity_function"`
	Fields               []string `yaml:"fields"`
	DocumentField        string   `yaml:"document_field"`
	ConnectionTimeoutSec int      `yaml:"connection_timeout_sec"`
	RequestTimeoutSec    int      `yaml:"request_timeout_sec"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	Addrs            []string              `yaml:"addrs"`
	Username         string                `yaml:"username"`
	Password         string                `yaml:"password"`
	DB               int                   `yaml:"db"`
	IndexName        string                `yaml:"index_name"`
	Prefix           string                `yaml:"prefix"`
	ContentField     string                `yaml:"content_field"`
	EmbeddingField   string                `yaml:"embedding_field"`
	Dimensions       int                   `yaml:"dimensions"`
	DistanceMetric   string                `yaml:"distance_metric"`
	MetadataFields   []MetadataFieldConfig `yaml:"metadata_fields"`
	InitializeSchema bool                  `yaml:"initialize_schema"`
}

// MetadataFieldConfig declares one filterable metadata field for the
// redis backend.
type MetadataFieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // TAG, NUMERIC, TEXT
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	User       string `yaml:"user"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env"`   // local, dev, prod (default: local)
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a YAML configuration file, expands ${VAR} / ${VAR:-default}
// references against the environment, applies defaults and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverGemFire
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverGemFire:
		if c.GemFire.IndexName == "" {
			return fmt.Errorf("gemfire.index_name is required")
		}
	case DriverRedis:
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required")
		}
		if c.Redis.IndexName == "" {
			return fmt.Errorf("redis.index_name is required")
		}
		if c.Redis.Dimensions <= 0 {
			return fmt.Errorf("redis.dimensions must be positive, got %d", c.Redis.Dimensions)
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverGemFire, DriverRedis, c.Store.Driver)
	}

	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
