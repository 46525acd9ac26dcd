// Package bus is the in-process publish/subscribe channel between the
// scheduling engine and its side effects, such as calendar sync. Handlers run
// synchronously on the publisher's goroutine; a subscriber that needs
// concurrency brings its own.
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomly/internal/models"
)

// Topic identifies an event lifecycle transition.
type Topic string

const (
	TopicEventCreated Topic = "event.created"
	TopicEventUpdated Topic = "event.updated"
	TopicEventDeleted Topic = "event.deleted"
)

// Message carries a snapshot of the event as it was when published. For
// deletions the snapshot is the last stored state.
type Message struct {
	Topic Topic
	Event models.Event
	At    time.Time
}

// HandlerFunc reacts to a published message. Errors are the handler's own
// problem; publishing never fails.
type HandlerFunc func(ctx context.Context, msg Message)

// Bus fans messages out to topic subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Topic][]HandlerFunc
	logger      zerolog.Logger
}

// New constructs an empty bus.
func New(logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[Topic][]HandlerFunc),
		logger:      logger.With().Str("component", "bus").Logger(),
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], handler)
}

// Publish delivers the message to every subscriber of its topic.
func (b *Bus) Publish(ctx context.Context, topic Topic, ev models.Event) {
	b.mu.RLock()
	handlers := append([]HandlerFunc(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	msg := Message{Topic: topic, Event: ev, At: time.Now()}

	for _, handler := range handlers {
		handler(ctx, msg)
	}

	b.logger.Debug().
		Str("topic", string(topic)).
		Int64("event_id", ev.ID).
		Int("subscribers", len(handlers)).
		Msg("Message published")
}
