// Package config loads the description of a termexp database from YAML
// files with environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/termexp/resource"
)

// Backend names a shard storage backend.
type Backend string

const (
	// BackendMemory is an empty in-memory table, mostly useful in tests.
	BackendMemory Backend = "memory"
	// BackendBadger is an embedded Badger database directory.
	BackendBadger Backend = "badger"
	// BackendSSTable is an sstable file on local disk.
	BackendSSTable Backend = "sstable"
	// BackendS3 is an sstable object in S3.
	BackendS3 Backend = "s3"
	// BackendMinIO is an sstable object on an S3-compatible MinIO server.
	BackendMinIO Backend = "minio"
	// BackendDynamo is one namespace of a DynamoDB table.
	BackendDynamo Backend = "dynamo"
)

// Config is the top-level configuration.
type Config struct {
	Logging   LoggingConfig  `yaml:"logging"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Resources ResourceConfig `yaml:"resources"`
	Expand    ExpandConfig   `yaml:"expand"`
	Shards    []ShardConfig  `yaml:"shards"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging level %q: %w", l.Level, err)
	}
	return level, nil
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ResourceConfig bounds memory, background work and IO shared by all
// shards.
type ResourceConfig struct {
	MemoryLimitBytes     int64 `yaml:"memoryLimitBytes"`
	MaxBackgroundWorkers int64 `yaml:"maxBackgroundWorkers"`
	IOLimitBytesPerSec   int64 `yaml:"ioLimitBytesPerSec"`
}

// Controller returns a resource controller enforcing the limits.
func (r ResourceConfig) Controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes:     r.MemoryLimitBytes,
		MaxBackgroundWorkers: r.MaxBackgroundWorkers,
		IOLimitBytesPerSec:   r.IOLimitBytesPerSec,
	})
}

// ExpandConfig holds expansion defaults.
type ExpandConfig struct {
	MaxItems      int     `yaml:"maxItems"`
	MinWeight     float64 `yaml:"minWeight"`
	Scheme        string  `yaml:"scheme"`
	ExpandK       float64 `yaml:"expandK"`
	ExactTermFreq bool    `yaml:"exactTermFreq"`
}

// ShardConfig describes where one shard is stored. Which fields apply
// depends on Backend.
type ShardConfig struct {
	Backend Backend `yaml:"backend"`

	// Path is the Badger directory or the sstable file.
	Path string `yaml:"path"`

	// Bucket, Prefix and Object locate an sstable in object storage.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Object string `yaml:"object"`
	Region string `yaml:"region"`

	// Endpoint, AccessKey, SecretKey and UseSSL configure the MinIO client.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`

	// Table and Namespace locate a DynamoDB shard.
	Table          string `yaml:"table"`
	Namespace      string `yaml:"namespace"`
	ConsistentRead bool   `yaml:"consistentRead"`
}

// Validate checks that the fields the backend needs are set.
func (s ShardConfig) Validate() error {
	var missing []string
	need := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	switch s.Backend {
	case BackendMemory:
	case BackendBadger, BackendSSTable:
		need("path", s.Path)
	case BackendS3:
		need("bucket", s.Bucket)
		need("object", s.Object)
	case BackendMinIO:
		need("endpoint", s.Endpoint)
		need("bucket", s.Bucket)
		need("object", s.Object)
	case BackendDynamo:
		need("table", s.Table)
		need("namespace", s.Namespace)
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s backend requires %s", s.Backend, strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging format %q: want json or text", c.Logging.Format)
	}
	if len(c.Shards) == 0 {
		return errors.New("no shards configured")
	}
	for i, s := range c.Shards {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("shard %d: %w", i, err)
		}
	}
	return nil
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Parse decodes YAML data on top of the defaults. Environment overrides are
// not applied.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used for missing values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Resources: ResourceConfig{
			MaxBackgroundWorkers: 4,
		},
		Expand: ExpandConfig{
			MaxItems: 10,
			Scheme:   "prob",
			ExpandK:  1,
		},
	}
}

// applyEnvOverrides reads TERMEXP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TERMEXP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TERMEXP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TERMEXP_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("TERMEXP_RESOURCES_MEMORY_LIMIT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Resources.MemoryLimitBytes = n
		}
	}
	if v := os.Getenv("TERMEXP_RESOURCES_MAX_BACKGROUND_WORKERS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Resources.MaxBackgroundWorkers = n
		}
	}
	if v := os.Getenv("TERMEXP_RESOURCES_IO_LIMIT_BYTES_PER_SEC"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Resources.IOLimitBytesPerSec = n
		}
	}
	if v := os.Getenv("TERMEXP_EXPAND_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Expand.MaxItems = n
		}
	}
	if v := os.Getenv("TERMEXP_EXPAND_MIN_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Expand.MinWeight = f
		}
	}
	if v := os.Getenv("TERMEXP_EXPAND_SCHEME"); v != "" {
		cfg.Expand.Scheme = v
	}
	if v := os.Getenv("TERMEXP_EXPAND_K"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Expand.ExpandK = f
		}
	}
	if v := os.Getenv("TERMEXP_EXPAND_EXACT_TERM_FREQ"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Expand.ExactTermFreq = b
		}
	}
}
