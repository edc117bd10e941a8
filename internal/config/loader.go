package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/anomalyeval")
	}

	setDefaults(v)

	// ANOMALYEVAL_DETECTOR_LAG overrides detector.lag
	v.SetEnvPrefix("ANOMALYEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())

	v.SetDefault("auth.enabled", d.Auth.Enabled)

	v.SetDefault("evaluation.thresholds", d.Evaluation.Thresholds)
	v.SetDefault("evaluation.recall_levels", d.Evaluation.RecallLevels)
	v.SetDefault("evaluation.include_full_ranking", d.Evaluation.IncludeFullRanking)
	v.SetDefault("evaluation.parallel", d.Evaluation.Parallel)
	v.SetDefault("evaluation.time_layout", d.Evaluation.TimeLayout)

	v.SetDefault("detector.algorithm", d.Detector.Algorithm)
	v.SetDefault("detector.lag", d.Detector.Lag)

	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.jobs_subject", d.Queue.JobsSubject)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			HTTPPort:        5580,
			BodyLimit:       16 * 1024 * 1024,
			ShutdownTimeout: 10 * time.Second,
		},
		Evaluation: EvaluationConfig{
			Thresholds:   []float64{0.05, 0.10, 0.15, 0.20, 0.25},
			RecallLevels: []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			TimeLayout:   "2006-01-02 15:04:05",
		},
		Detector: DetectorConfig{
			Algorithm: "sls",
			Lag:       10,
		},
		Queue: QueueConfig{
			Type:         "none",
			Subject:      "anomalyeval.reports",
			RedisStream:  "anomalyeval",
			RedisGroup:   "anomalyeval-group",
			KafkaGroupID: "anomalyeval-group",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
