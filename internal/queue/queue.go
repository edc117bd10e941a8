// Package queue moves evaluation reports and jobs over a message broker.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrAlreadySubscribed is returned when a subject already has a handler
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrNotSubscribed is returned when unsubscribing an unknown subject
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrDisabled is returned by the factory for queue type none
	ErrDisabled = errors.New("queue disabled")
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes multiple messages and waits for all to complete.
	// Returns the number of successfully published messages.
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	// Close closes the connection
	Close() error
}

// BatchMessage represents a message for batch publishing
type BatchMessage struct {
	Subject string
	Data    []byte
}

// MessageHandler handles one delivered message. A non-nil error leaves the
// message unacknowledged so the broker can redeliver it.
type MessageHandler func(ctx context.Context, data []byte) error

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	Subscribe(subject string, handler MessageHandler) error
	Unsubscribe(subject string) error
	Close() error
}

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}
