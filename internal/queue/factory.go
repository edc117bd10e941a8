package queue

import (
	"fmt"

	"github.com/soltixdb/anomalyeval/internal/config"
	"github.com/soltixdb/anomalyeval/internal/utils"
)

// NewQueue creates a Queue for the configured backend. Type none (or empty)
// returns ErrDisabled.
func NewQueue(cfg config.QueueConfig) (Queue, error) {
	switch utils.ParseQueueType(cfg.Type) {
	case utils.QueueTypeNone:
		return nil, ErrDisabled

	case utils.QueueTypeNATS:
		return newNATSQueue(cfg.URL, cfg.Password)

	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		})

	case utils.QueueTypeKafka:
		return newKafkaQueue(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		})

	case utils.QueueTypeMemory:
		return newMemoryQueue(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: none, nats, redis, kafka, memory)", cfg.Type)
	}
}

// NewPublisher creates a Publisher from configuration
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	return NewQueue(cfg)
}

// NewSubscriber creates a Subscriber from configuration
func NewSubscriber(cfg config.QueueConfig) (Subscriber, error) {
	return NewQueue(cfg)
}
