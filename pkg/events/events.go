package events

import (
	"context"
	"time"

	"github.com/jordan/payment-capture-scheduler/pkg/models"
)

// MessageType defines the type of a capture event message.
type MessageType string

const (
	// MessageTypeCaptureScheduled is emitted when a deferred capture is
	// accepted or replaced.
	MessageTypeCaptureScheduled MessageType = "captureScheduled"
	// MessageTypeCaptureCancelled is emitted when a pending capture is
	// cancelled before execution.
	MessageTypeCaptureCancelled MessageType = "captureCancelled"
	// MessageTypeCaptureCompleted is emitted when a capture settles.
	MessageTypeCaptureCompleted MessageType = "captureCompleted"
	// MessageTypeCaptureFailed is emitted when a capture fails terminally.
	MessageTypeCaptureFailed MessageType = "captureFailed"
)

// Message represents a generic event stream message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// CapturePayload is the payload for all capture lifecycle messages.
type CapturePayload struct {
	OrderID       string              `json:"order_id"`
	TransactionID string              `json:"transaction_id"`
	State         models.CaptureState `json:"state"`
	DueAt         time.Time           `json:"due_at"`
	Attempts      int                 `json:"attempts,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// Publisher defines the interface for publishing messages to event
// stream subscribers.
type Publisher interface {
	Publish(ctx context.Context, message Message) error
}

// NoOpPublisher is a publisher that does nothing.
type NoOpPublisher struct{}

// Publish does nothing.
func (p *NoOpPublisher) Publish(ctx context.Context, message Message) error {
	return nil
}
