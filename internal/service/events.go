package service

import (
	"context"
	"log"
	"time"

	"bookingwatch/internal/domain"
	"bookingwatch/internal/observability"
)

// EventType represents the kind of UI event a session emits.
type EventType string

const (
	EventState         EventType = "STATE"
	EventNavigate      EventType = "NAVIGATE"
	EventToast         EventType = "TOAST"
	EventPaymentPrompt EventType = "PAYMENT_PROMPT"
	EventSessionEnded  EventType = "SESSION_ENDED"
)

// Toast severity levels.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

// Event is one instruction to the frontend subscribed to a session:
// re-render with fresh state, navigate somewhere, show a toast, surface
// the payment flow, or tear the view down.
type Event struct {
	SessionID string              `json:"session_id"`
	Type      EventType           `json:"type"`
	Booking   *domain.Booking     `json:"booking,omitempty"`
	Page      *domain.BookingPage `json:"page,omitempty"`
	Available []*domain.Booking   `json:"available,omitempty"`
	Path      string              `json:"path,omitempty"`
	BookingID string              `json:"booking_id,omitempty"`
	Level     string              `json:"level,omitempty"`
	Message   string              `json:"message,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Sink receives session events. Implementations must not block the
// session goroutine; slow consumers drop rather than stall polling.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// MultiSink fans an event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, event Event) {
	observability.EventsPublished.WithLabelValues(string(event.Type)).Inc()
	for _, s := range m {
		s.Publish(ctx, event)
	}
}

// LogSink writes events to the process log.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, event Event) {
	log.Printf("[EVENT] session=%s type=%s path=%s message=%q reason=%s",
		event.SessionID, event.Type, event.Path, event.Message, event.Reason)
}

// TransitionObserver is notified of every booking status transition a
// session observes. The journal, the Kafka stream and metrics all hang
// off this.
type TransitionObserver interface {
	ObserveTransition(ctx context.Context, t *domain.Transition)
}
