package stream

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"bookingwatch/internal/domain"
)

// TransitionPublisher publishes observed booking status transitions to a
// Kafka topic, keyed by booking id so one booking's transitions stay
// ordered within a partition.
type TransitionPublisher struct {
	writer *kafka.Writer
}

// NewTransitionPublisher creates a Kafka transition publisher.
func NewTransitionPublisher(brokers []string, topic string) *TransitionPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &TransitionPublisher{writer: w}
}

// transitionMessage is the wire shape of one published transition.
type transitionMessage struct {
	SessionID     string `json:"session_id"`
	BookingID     string `json:"booking_id"`
	From          string `json:"from,omitempty"`
	To            string `json:"to"`
	PaymentStatus string `json:"payment_status,omitempty"`
	ObservedAt    string `json:"observed_at"`
}

// ObserveTransition publishes the transition. Broker failures are logged
// and swallowed so the stream never disturbs polling.
func (p *TransitionPublisher) ObserveTransition(_ context.Context, t *domain.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b, _ := json.Marshal(transitionMessage{
		SessionID:     t.SessionID,
		BookingID:     t.BookingID,
		From:          string(t.From),
		To:            string(t.To),
		PaymentStatus: string(t.PaymentStatus),
		ObservedAt:    t.ObservedAt.Format(time.RFC3339Nano),
	})

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.BookingID), Value: b}); err != nil {
		log.Printf("publish transition for booking %s: %v", t.BookingID, err)
	}
}

// Close flushes and closes the underlying writer.
func (p *TransitionPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
