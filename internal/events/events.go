package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "camp-service"
	EventVersion = "1.0"
)

type EventType string

const (
	OrderInitiated EventType = "order.initiated"
	OrderPaid      EventType = "order.paid"
	OrderFailed    EventType = "order.failed"
)

// Event is the envelope every message on the order topic carries
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type OrderEventData struct {
	TranID       string  `json:"tranId"`
	CourseID     string  `json:"courseID"`
	ClassName    string  `json:"className,omitempty"`
	StudentEmail string  `json:"studentEmail"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Publisher sends domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
