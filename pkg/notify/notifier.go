// Package notify delivers pipeline events to external systems.
//
// Two sinks are supported: an HTTP webhook (for n8n-style automation
// flows) and an AMQP queue. Delivery is best-effort; a failed
// notification never affects the conversational reply.
package notify

import (
	"context"
	"errors"
	"time"
)

// Event types emitted by the pipeline.
const (
	EventEmotionDetected       = "emotion_detected"
	EventConversationCompleted = "conversation_completed"
	EventUserAnalytics         = "user_analytics"
	EventConnectionTest        = "connection_test"
)

var (
	// ErrNotConfigured indicates the sink has no destination configured.
	ErrNotConfigured = errors.New("notification sink not configured")

	// ErrDeliveryFailed indicates all delivery attempts were exhausted.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// Event is a single notification payload.
type Event struct {
	Type      string                 `json:"event_type"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType, userID string, data map[string]interface{}) Event {
	return Event{
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Notifier delivers events to an external sink.
type Notifier interface {
	// Send delivers a single event. Implementations retry internally;
	// an error means the event was dropped.
	Send(ctx context.Context, event Event) error

	// Name identifies the sink for logging and metrics.
	Name() string

	// Enabled reports whether the sink has a destination configured.
	Enabled() bool
}

// NopNotifier discards all events. Used when no sink is configured.
type NopNotifier struct{}

func (NopNotifier) Send(ctx context.Context, event Event) error { return nil }
func (NopNotifier) Name() string                                { return "nop" }
func (NopNotifier) Enabled() bool                               { return false }
