package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookingwatch/internal/domain"
	"bookingwatch/internal/service"
)

// mockTransitionRepo is an in-memory repository.TransitionRepository.
type mockTransitionRepo struct {
	mu       sync.Mutex
	recorded []*domain.Transition

	RecordError error
}

func (m *mockTransitionRepo) Record(_ context.Context, t *domain.Transition) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, t)
	return nil
}

func (m *mockTransitionRepo) ListByBooking(_ context.Context, bookingID string) ([]*domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transition
	for _, t := range m.recorded {
		if t.BookingID == bookingID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// TRANSITION JOURNAL
// ──────────────────────────────────────────────

func TestJournalObserverRecordsTransitions(t *testing.T) {
	repo := &mockTransitionRepo{}
	obs := service.NewJournalObserver(repo)

	obs.ObserveTransition(context.Background(), &domain.Transition{
		SessionID:  "sess-1",
		BookingID:  "b1",
		From:       domain.BookingStatusPending,
		To:         domain.BookingStatusAccepted,
		ObservedAt: time.Now(),
	})

	got, err := repo.ListByBooking(context.Background(), "b1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].To != domain.BookingStatusAccepted {
		t.Fatalf("unexpected journal contents: %+v", got)
	}
}

func TestJournalObserverSwallowsFailures(t *testing.T) {
	repo := &mockTransitionRepo{RecordError: errors.New("db down")}
	obs := service.NewJournalObserver(repo)

	// A journal failure must not panic or propagate; the polling loop
	// only ever sees a log line.
	obs.ObserveTransition(context.Background(), &domain.Transition{
		SessionID: "sess-1",
		BookingID: "b1",
		To:        domain.BookingStatusStarted,
	})
}
