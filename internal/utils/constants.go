package utils

import (
	"strings"
	"time"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultRequestTimeout bounds a single evaluation request
	DefaultRequestTimeout = 30 * time.Second

	// QueueConnectTimeout bounds the initial broker connection check
	QueueConnectTimeout = 5 * time.Second

	// PublishTimeout bounds the publication of one report
	PublishTimeout = 5 * time.Second
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond
)

// =============================================================================
// Buffer and Batch Size Constants
// =============================================================================

const (
	// DefaultBatchSize is the default producer batch size
	DefaultBatchSize = 100

	// MemoryQueueCapacity is the per-subject buffer of the in-memory queue
	MemoryQueueCapacity = 10000

	// MaxInFlightJobs caps unacknowledged evaluation jobs per consumer
	MaxInFlightJobs = 100
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNone disables report publishing
	QueueTypeNone QueueType = "none"

	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)

// ParseQueueType normalizes a configured queue type. Empty means none.
func ParseQueueType(s string) QueueType {
	if s == "" {
		return QueueTypeNone
	}
	return QueueType(strings.ToLower(strings.TrimSpace(s)))
}
