package config

import (
	"fmt"
	"time"

	"github.com/soltixdb/anomalyeval/internal/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`             // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort        int           `mapstructure:"http_port"`        // HTTP server port
	BodyLimit       int           `mapstructure:"body_limit"`       // Max request body in bytes
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // Graceful shutdown timeout
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// EvaluationConfig holds the mAP constants
type EvaluationConfig struct {
	Thresholds         []float64 `mapstructure:"thresholds"`           // IoU acceptance thresholds
	RecallLevels       []float64 `mapstructure:"recall_levels"`        // Interpolation recall points
	IncludeFullRanking bool      `mapstructure:"include_full_ranking"` // Sweep prefixes up to k = N
	Parallel           bool      `mapstructure:"parallel"`             // Compute per-threshold AP concurrently
	TimeLayout         string    `mapstructure:"time_layout"`          // Layout of detection/data timestamps
}

// DetectorConfig selects the detector collaborator
type DetectorConfig struct {
	Algorithm string `mapstructure:"algorithm"` // sls, zscore, moving_avg, exponential
	Lag       int    `mapstructure:"lag"`       // Default lag when a request omits it
}

// QueueConfig represents report publishing configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // none (default), nats, redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Subject  string `mapstructure:"subject"`  // Subject/topic/stream reports are published to
	Password string `mapstructure:"password"` // Optional authentication

	// JobsSubject enables the evaluation job consumer when set
	JobsSubject string `mapstructure:"jobs_subject"`

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "anomalyeval")
	RedisGroup    string `mapstructure:"redis_group"`    // Consumer group name (default: "anomalyeval-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Consumer group ID (default: "anomalyeval-group")
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Evaluation.Validate(); err != nil {
		return fmt.Errorf("evaluation config: %w", err)
	}

	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates evaluation configuration
func (c *EvaluationConfig) Validate() error {
	if len(c.Thresholds) == 0 {
		return fmt.Errorf("evaluation.thresholds is required")
	}

	for _, th := range c.Thresholds {
		if th < 0 {
			return fmt.Errorf("evaluation.thresholds must be non-negative, got %v", th)
		}
	}

	if len(c.RecallLevels) == 0 {
		return fmt.Errorf("evaluation.recall_levels is required")
	}

	for _, level := range c.RecallLevels {
		if level < 0 || level > 1 {
			return fmt.Errorf("evaluation.recall_levels must be within [0, 1], got %v", level)
		}
	}

	return nil
}

// Validate validates detector configuration
func (c *DetectorConfig) Validate() error {
	if c.Algorithm == "" {
		return fmt.Errorf("detector.algorithm is required")
	}

	if c.Lag < 1 {
		return fmt.Errorf("detector.lag must be at least 1")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch utils.ParseQueueType(c.Type) {
	case utils.QueueTypeNone:
		return nil
	case utils.QueueTypeMemory:
	case utils.QueueTypeNATS, utils.QueueTypeRedis:
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case utils.QueueTypeKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("queue.kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("queue.type must be one of: none, memory, nats, redis, kafka")
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	if c.JobsSubject != "" && c.JobsSubject == c.Subject {
		return fmt.Errorf("queue.jobs_subject must differ from queue.subject")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// PublishesReports returns true when a report queue is configured
func (c *Config) PublishesReports() bool {
	return utils.ParseQueueType(c.Queue.Type) != utils.QueueTypeNone
}

// ConsumesJobs returns true when evaluation jobs are read from the queue
func (c *Config) ConsumesJobs() bool {
	return c.PublishesReports() && c.Queue.JobsSubject != ""
}
